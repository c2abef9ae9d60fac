package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"leadripper/internal/config"
	"leadripper/internal/logging"
	"leadripper/internal/queue"
	"leadripper/internal/store"
	"leadripper/internal/validator"
	"leadripper/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(config.LoggingConfig{}).WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Logging)

	if err := logging.InitSentry(cfg.SentryDSN, "leadripper-worker"); err != nil {
		log.WithError(err).Warn("sentry init failed, continuing without error reporting")
	}
	defer sentry.Flush(2 * time.Second)

	if cfg.DBURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	rdb, err := queue.Connect(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer rdb.Close()
	log.WithField("addr", cfg.Redis.Addr).Info("connected to redis")

	db, err := store.Open(ctx, cfg.DBURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	engine, err := validator.NewFromConfig(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build validation engine")
	}

	worker.New(queue.New(rdb), db, engine, cfg.Worker, log).Run(ctx)
}
