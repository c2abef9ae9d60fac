package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"leadripper/internal/config"
	"leadripper/internal/logging"
	"leadripper/internal/queue"
	"leadripper/internal/store"
	"leadripper/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(config.LoggingConfig{}).WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Logging)

	if err := logging.InitSentry(cfg.SentryDSN, "leadripper-api"); err != nil {
		log.WithError(err).Warn("sentry init failed, continuing without error reporting")
	}
	defer sentry.Flush(2 * time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	engine, err := validator.NewFromConfig(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build validation engine")
	}

	// Bulk endpoints need both Postgres and Redis; without DB_URL the
	// service runs single-address validation only.
	var jobs jobStore
	var tasks taskQueue
	if cfg.DBURL != "" {
		db, err := store.Open(ctx, cfg.DBURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()
		log.Info("connected to PostgreSQL, migrations applied")

		rdb, err := queue.Connect(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		log.WithField("addr", cfg.Redis.Addr).Info("connected to redis queue")

		jobs, tasks = db, queue.New(rdb)
	} else {
		log.Warn("DB_URL not set, bulk endpoints disabled")
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      newAPI(engine, jobs, tasks, cfg.HTTP.APIKey, log).routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("validation API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, draining in-flight requests")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server shut down cleanly")
}
