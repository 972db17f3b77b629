package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"unistay/internal/app"
)

// Reconciler periodically sweeps bookings whose checkout session never
// produced a webhook and settles the ones the provider reports as paid.
type Reconciler struct {
	cron     *cron.Cron
	payments *app.PaymentService
	timeout  time.Duration
}

func NewReconciler(payments *app.PaymentService) *Reconciler {
	return &Reconciler{
		cron:     cron.New(),
		payments: payments,
		timeout:  5 * time.Minute,
	}
}

// Start registers the sweep under the given cron spec (e.g. "@every 10m")
// and starts the scheduler.
func (r *Reconciler) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, r.sweep)
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Info().Str("spec", spec).Msg("payment reconciler started")
	return nil
}

func (r *Reconciler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.payments.Reconcile(ctx); err != nil {
		log.Error().Err(err).Msg("payment reconcile sweep failed")
		return
	}
	log.Debug().Dur("took", time.Since(start)).Msg("payment reconcile sweep done")
}

// Stop ends the scheduler and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}
