package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "unistay/internal/adapters/http_server"
	"unistay/internal/adapters/observability"
	redisad "unistay/internal/adapters/redis"
	"unistay/internal/adapters/stripe"
	"unistay/internal/app"
	"unistay/internal/jobs"
	"unistay/internal/shared"
	mysqlrepo "unistay/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	if err := mysqlrepo.VerifySchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("schema check failed; run cmd/migrate first")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	sessions := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	checkout, err := stripe.New(cfg.StripeBase, cfg.StripeSecretKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("stripe client init failed")
	}

	users := app.NewUserService(repo, repo)
	listings := app.NewListingService(repo, repo, repo, repo)
	bookings := app.NewBookingService(repo, repo)
	payments := app.NewPaymentService(repo, repo, repo, repo, checkout, cfg.BaseURL, cfg.ReconcileGrace)
	reviews := app.NewReviewService(repo, repo)
	dashboard := app.NewDashboardService(repo, repo)

	if err := users.BootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	reconciler := jobs.NewReconciler(payments)
	if err := reconciler.Start(cfg.ReconcileSpec); err != nil {
		log.Fatal().Err(err).Msg("reconciler start failed")
	}

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(
		users, listings, bookings, payments, reviews, dashboard,
		sessions, cfg.SessionTTL, stripe.NewWebhookVerifier(cfg.StripeWebhookSecret),
	))

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop <- syscall.SIGTERM
		}
	}()

	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	reconciler.Stop()
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("db close failed")
	}
	log.Info().Msg("stopped")
}
