package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"unistay/internal/adapters/observability"
	"unistay/internal/domain"
)

// PaymentService bridges bookings to the hosted checkout provider. The
// signed webhook is the only state-changing confirmation channel; the
// browser redirect back from checkout is read-only.
type PaymentService struct {
	bookings domain.BookingRepository
	listings domain.ListingRepository
	users    domain.UserRepository
	payments domain.PaymentRepository
	provider domain.CheckoutProvider

	baseURL string
	grace   time.Duration
}

func NewPaymentService(
	b domain.BookingRepository,
	l domain.ListingRepository,
	u domain.UserRepository,
	p domain.PaymentRepository,
	provider domain.CheckoutProvider,
	baseURL string,
	grace time.Duration,
) *PaymentService {
	return &PaymentService{
		bookings: b, listings: l, users: u, payments: p,
		provider: provider, baseURL: baseURL, grace: grace,
	}
}

// StartCheckout creates a hosted checkout session for an approved booking
// owned by the caller and returns the redirect URL. On provider failure
// the booking keeps its state; there is no automatic retry beyond the
// client's own transient-error handling.
func (s *PaymentService) StartCheckout(ctx context.Context, bookingID, userID int64) (string, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.UserID != userID {
		return "", domain.ErrForbidden
	}
	if b.Status != domain.BookingApproved {
		return "", domain.ErrBookingNotPayable
	}

	listing, err := s.listings.GetListing(ctx, b.ListingID)
	if err != nil {
		return "", err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, domain.CheckoutInput{
		AmountMinor:   domain.MinorUnits(b.TotalPrice),
		Currency:      "zar",
		Name:          listing.Title,
		Description:   fmt.Sprintf("Booking #%d – %s period", b.ID, b.Duration),
		CustomerEmail: user.Email,
		BookingID:     b.ID,
		UserID:        user.ID,
		SuccessURL:    fmt.Sprintf("%s/v1/bookings/%d/confirmation", s.baseURL, b.ID),
		CancelURL:     fmt.Sprintf("%s/v1/bookings/%d", s.baseURL, b.ID),
	})
	if err != nil {
		log.Error().Err(err).Int64("booking_id", b.ID).Msg("checkout session creation failed")
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.bookings.SetBookingCheckout(ctx, b.ID, sess.ID, sess.PaymentIntentID); err != nil {
		return "", err
	}
	return sess.URL, nil
}

// Finalize settles a booking after the provider confirmed payment. Safe to
// call any number of times.
func (s *PaymentService) Finalize(ctx context.Context, bookingID int64, providerPaymentID string) error {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if providerPaymentID == "" {
		// provider omitted the intent id; fall back to whatever we stored
		if b.PaymentIntentID != nil {
			providerPaymentID = *b.PaymentIntentID
		} else {
			providerPaymentID = fmt.Sprintf("local_%d", b.ID)
		}
	}

	newly, err := s.payments.FinalizePayment(ctx, b.ID, providerPaymentID, b.TotalPrice)
	if err != nil {
		return err
	}
	if newly {
		observability.PaymentsSucceeded.Inc()
		log.Info().Int64("booking_id", b.ID).Float64("amount", b.TotalPrice).Msg("payment recorded")
	}
	return nil
}

// CheckoutCompleted is the webhook entry point: the event has already been
// signature-verified by the HTTP layer.
func (s *PaymentService) CheckoutCompleted(ctx context.Context, bookingID int64, paymentIntentID, paymentStatus string) error {
	if paymentStatus != "paid" {
		log.Warn().Int64("booking_id", bookingID).Str("payment_status", paymentStatus).
			Msg("checkout completed event without paid status, ignoring")
		return nil
	}
	return s.Finalize(ctx, bookingID, paymentIntentID)
}

// ConfirmRedirect serves the browser's return from checkout. It never
// mutates: if the webhook has not landed yet the booking still reads as
// approved and the page can say "payment pending".
func (s *PaymentService) ConfirmRedirect(ctx context.Context, bookingID, userID int64) (domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.UserID != userID {
		return domain.Booking{}, domain.ErrForbidden
	}
	return b, nil
}

// Reconcile sweeps approved bookings whose checkout session is older than
// the grace period and settles any the provider reports as paid. It covers
// webhook deliveries lost in transit.
func (s *PaymentService) Reconcile(ctx context.Context) error {
	cutoff := time.Now().Add(-s.grace)
	stale, err := s.bookings.ListUnfinalized(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, b := range stale {
		sess, err := s.provider.GetCheckoutSession(ctx, *b.CheckoutSessionID)
		if err != nil {
			log.Warn().Err(err).Int64("booking_id", b.ID).Msg("reconcile: session lookup failed")
			continue
		}
		if sess.PaymentStatus != "paid" {
			continue
		}
		if err := s.Finalize(ctx, b.ID, sess.PaymentIntentID); err != nil {
			log.Warn().Err(err).Int64("booking_id", b.ID).Msg("reconcile: finalize failed")
		}
	}
	return nil
}
