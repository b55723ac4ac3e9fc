package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/tokosehat/kasir/api/routes"
	"github.com/tokosehat/kasir/internal/auth"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/checkout"
	"github.com/tokosehat/kasir/internal/receipt"
	"github.com/tokosehat/kasir/internal/register"
	"github.com/tokosehat/kasir/internal/reports"
	"github.com/tokosehat/kasir/internal/search"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/internal/users"
	"github.com/tokosehat/kasir/pkg/apiclient"
	"github.com/tokosehat/kasir/pkg/auth/session"
	"github.com/tokosehat/kasir/pkg/config"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/metrics"
	"github.com/tokosehat/kasir/pkg/redis"
)

const serviceName = "kasir-register"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithRegisterID(ctx, cfg.App.RegisterID)

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "register stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "register shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registerMetrics := metrics.NewRegisterMetrics(registry)

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Gatherer: registry,
	}

	var backend session.Backend
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, cfg.Session.Namespace, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		backend = redisClient
		deps.Redis = redisClient
	} else {
		memory := session.NewMemoryStore(cfg.Session.Namespace)
		logg.Warn(ctx, "redis not configured, keeping the session in memory")
		backend = memory
		deps.IdempotencyStore = memory
	}

	sess, err := session.New(backend, cfg.App.RegisterID, cfg.Session.TTL)
	if err != nil {
		return err
	}
	if err := sess.Load(ctx); err != nil {
		return err
	}
	if user := sess.User(); user != nil {
		logg.Info(logg.WithUserID(ctx, user.ID), "restored cashier session")
	}
	deps.Session = sess

	api, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithCredentials(sess),
		apiclient.WithLogger(logg),
		apiclient.WithMetrics(registerMetrics),
		apiclient.WithBreaker(cfg.Breaker),
	)
	if err != nil {
		return err
	}
	deps.Breaker = api

	if err := buildServices(&deps, api, sess, logg); err != nil {
		return err
	}

	orch, err := checkout.NewOrchestrator(deps.Transactions, sess,
		checkout.WithLogger(logg),
		checkout.WithMetrics(registerMetrics),
		checkout.WithReceiptListener(func(ctx context.Context, tx transactions.Transaction) {
			logg.Info(logg.WithField(ctx, "no_nota", tx.NoNota), "sale recorded")
		}),
	)
	if err != nil {
		return err
	}

	renderer := receipt.New(cfg.Store, receipt.WithLocation(cfg.Store.Location()))
	counter, err := register.New(orch,
		register.CatalogLookup(deps.Catalog, cfg.API.SearchLimit),
		renderer,
		search.WithWindow[catalog.Product](cfg.API.SearchDebounce),
		search.WithLogger[catalog.Product](logg),
		search.WithMetrics[catalog.Product](registerMetrics),
	)
	if err != nil {
		return err
	}
	defer counter.Close()
	deps.Register = counter

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"env":      cfg.App.Env,
			"addr":     server.Addr,
			"base_url": cfg.API.BaseURL,
		}), "starting register api")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(deps *routes.Deps, api *apiclient.Client, sess *session.Session, logg *logger.Logger) error {
	var err error
	if deps.Auth, err = auth.NewService(api, sess, logg); err != nil {
		return err
	}
	if deps.Catalog, err = catalog.NewService(api); err != nil {
		return err
	}
	if deps.Users, err = users.NewService(api); err != nil {
		return err
	}
	if deps.Transactions, err = transactions.NewService(api); err != nil {
		return err
	}
	if deps.Reports, err = reports.NewService(api, logg); err != nil {
		return err
	}
	return nil
}
