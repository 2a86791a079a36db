package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"aps-gateway/internal/aps"
	"aps-gateway/internal/auth/client"
	authhandler "aps-gateway/internal/auth/handler"
	"aps-gateway/internal/auth/profile"
	"aps-gateway/internal/auth/service"
	"aps-gateway/internal/gate"
	httpapi "aps-gateway/internal/http"
	"aps-gateway/internal/platform/config"
	"aps-gateway/internal/platform/httpserver"
	"aps-gateway/internal/platform/logger"
	"aps-gateway/internal/platform/metrics"
	"aps-gateway/internal/platform/redis"
	"aps-gateway/internal/session"
	"aps-gateway/internal/session/store"
	"aps-gateway/internal/web"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aps-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	httpClient := &http.Client{Timeout: cfg.APS.HTTPTimeout}

	tokens, err := client.New(client.Config{
		ClientID:     cfg.APS.ClientID,
		ClientSecret: cfg.APS.ClientSecret,
		RedirectURL:  cfg.APS.CallbackURL,
		AuthorizeURL: cfg.APS.AuthorizeURL,
		TokenURL:     cfg.APS.TokenURL,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return err
	}
	svc := service.New(tokens, profile.New(cfg.APS.UserInfoURL, httpClient),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithDefaultScopes(cfg.APS.DefaultScopes),
	)

	g, gctx := errgroup.WithContext(ctx)

	sessions, closeStore, err := openSessionStore(gctx, g, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	whitelist := gate.NewWhitelist(cfg.Whitelist.Emails)
	if cfg.Whitelist.Enabled && whitelist.Len() == 0 {
		log.Warn("whitelist is enabled but empty; every signed-in user will be denied")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:   log,
		Gatherer: prometheus.DefaultGatherer,
		Sessions: session.NewManager(sessions, log,
			session.WithCookieName(cfg.Session.CookieName),
			session.WithSecureCookie(cfg.Session.CookieSecure),
			session.WithMetrics(m),
		),
		Gates: gate.NewDispatcher(log, m,
			gate.NewAuthorizationGate(),
			gate.NewWhitelistGate(whitelist, cfg.Whitelist.Enabled),
		),
		Store: sessions,
		Handlers: []httpapi.Registrar{
			authhandler.New(svc, log),
			aps.New(cfg.APS.BaseURL, httpClient, log, m),
			web.New(log, cfg.Whitelist.Contact),
		},
	})

	srv := httpserver.New(cfg.Addr, router, cfg.APS.HTTPTimeout, log)

	g.Go(func() error {
		log.Info("starting aps-gateway",
			"addr", cfg.Addr,
			"env", cfg.Environment,
			"session_store", cfg.Session.Store,
			"whitelist_enabled", cfg.Whitelist.Enabled,
			"whitelist_entries", whitelist.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// openSessionStore builds the configured backend. The memory store gets a
// background sweeper on g; Redis expires keys itself.
func openSessionStore(ctx context.Context, g *errgroup.Group, cfg config.Server, log *slog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case "redis":
		rc, err := redis.Open(ctx, cfg.Redis, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect session store: %w", err)
		}
		return store.NewRedis(rc, cfg.Session.IdleTimeout), func() { _ = rc.Close() }, nil
	default:
		mem := store.NewMemory(cfg.Session.IdleTimeout)
		g.Go(func() error {
			if err := mem.StartCleanup(ctx, sweepInterval); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		return mem, func() {}, nil
	}
}
