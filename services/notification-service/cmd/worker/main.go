package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smart-international-shipping/internal/notify"
	"smart-international-shipping/internal/store/postgres"
	"smart-international-shipping/services/notification-service/internal/worker"
	"smart-international-shipping/shared/pkg/cache"
	"smart-international-shipping/shared/pkg/config"
	"smart-international-shipping/shared/pkg/logger"
	"smart-international-shipping/shared/pkg/rabbit"
)

const (
	service  = "notifier"
	dlqKey   = "notifier.dlq"
	retryKey = service + ".#"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("notification-service", cfg.Common.LogLevel)

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()
	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	rdb := cache.New(cfg.Redis.Addr)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctxDB); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, notifications stored without live push")
	}

	ctxMQ, cancelMQ := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMQ()
	rc, err := rabbit.ConnectRetry(ctxMQ, cfg.Rabbit.URL, time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}
	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     cfg.Notifier.Queue,
		BindKeys: []string{"grouporders.#", "orders.#", retryKey},
		DLQKey:   dlqKey,
		Prefetch: cfg.Notifier.Prefetch,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare notifier topology failed")
	}
	if err := rabbit.DeclareRetryQueue(rc.Ch, cfg.Notifier.Queue+".retry", retryKey, "", cfg.Rabbit.RetryTTL); err != nil {
		log.Fatal().Err(err).Msg("declare retry queue failed")
	}

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume(cfg.Notifier.Queue, cfg.Notifier.Prefetch)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	store := &postgres.Store{DB: db}
	w := &worker.Consumer{
		Log: log,
		Notifier: &notify.Bridge{
			Store:  store,
			Pusher: &notify.RedisPusher{Redis: rdb},
			Log:    log,
		},
		Processed:   &postgres.ProcessedEvents{DB: db},
		RetryPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
		DLQPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
		Service:     service,
		MaxAttempts: cfg.Rabbit.MaxAttempts,
		DLQKey:      dlqKey,
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(appCtx, deliveries)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              cfg.Notifier.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Msg("notification-service started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown...")

	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
