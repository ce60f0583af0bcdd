package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"smart-international-shipping/internal/account"
	"smart-international-shipping/internal/aggregate"
	"smart-international-shipping/internal/auth"
	"smart-international-shipping/internal/lifecycle"
	"smart-international-shipping/internal/notify"
	"smart-international-shipping/internal/store/postgres"
	httpx "smart-international-shipping/services/api-gateway/internal/http"
	"smart-international-shipping/services/api-gateway/internal/http/handlers"
	"smart-international-shipping/shared/pkg/cache"
	"smart-international-shipping/shared/pkg/config"
	"smart-international-shipping/shared/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("api-gateway", cfg.Common.LogLevel)
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatal().Err(err).Msg("auth config invalid")
	}

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDB()

	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctxDB, cfg.Postgres.DSN); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	rdb := cache.New(cfg.Redis.Addr)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctxDB); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, live push disabled until it recovers")
	}

	tokens, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("jwt setup failed")
	}
	var verifier account.IdentityVerifier
	if cfg.Auth.FederationSecret != "" {
		broker, err := auth.NewJWTManager(cfg.Auth.FederationSecret, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("federation setup failed")
		}
		verifier = broker
	}

	store := &postgres.Store{DB: db}
	bridge := &notify.Bridge{Store: store, Pusher: &notify.RedisPusher{Redis: rdb}, Log: log}
	svc := &lifecycle.Service{
		Store:    store,
		Engine:   &aggregate.Engine{Store: store},
		Notifier: bridge,
		Events:   &postgres.Outbox{DB: db},
		Log:      log,
		BaseURL:  cfg.App.PublicBaseURL,
	}
	accounts := &account.Service{Users: store, Tokens: tokens, Verifier: verifier, Log: log}

	groups := &handlers.GroupOrders{Svc: svc, Log: log}
	orders := &handlers.Orders{Svc: svc, Log: log}
	users := &handlers.Users{Accounts: accounts, Store: store, Log: log, CookieName: httpx.SessionCookie, CookieTTL: cfg.Auth.TokenTTL}
	notes := &handlers.Notifications{Svc: svc, Live: rdb, Log: log}

	router := httpx.NewRouter(&httpx.Handlers{
		Log:            log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Authenticate:   httpx.Authenticate(tokens, log),

		Health: handlers.Health,

		Register:    users.Register,
		CurrentUser: users.Current,

		ListGroupOrders:  groups.List,
		CreateGroupOrder: groups.Create,
		GetGroupOrder:    groups.Get,
		UpdateGroupOrder: groups.Update,
		DisbandGroup:     groups.Disband,
		Invite:           groups.Invite,
		Join:             groups.Join,
		RemoveMember:     groups.RemoveMember,
		AcceptShipment:   groups.Accept,
		CompleteShipment: groups.Complete,

		SubmitOrder:  orders.Submit,
		EditOrder:    orders.Edit,
		ApproveOrder: orders.Approve,
		CancelOrder:  orders.Cancel,

		ListNotifications:  notes.List,
		StreamNotification: notes.Stream,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
