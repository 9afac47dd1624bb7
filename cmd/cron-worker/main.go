package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feria-cr/feria-backend/internal/auth"
	"github.com/feria-cr/feria-backend/internal/cron"
	"github.com/feria-cr/feria-backend/internal/orders"
	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db"
	"github.com/feria-cr/feria-backend/pkg/logger"
	"github.com/feria-cr/feria-backend/pkg/metrics"
	"github.com/feria-cr/feria-backend/pkg/migrate"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/redis"
)

const lockKeyFormat = "feria:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	ordersRepo := orders.NewRepository(conn)

	ordersService, err := orders.NewService(
		ordersRepo,
		dbClient,
		outboxSvc,
		cfg.Orders,
		metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to wire orders service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewReconcileOrdersJob(cron.ReconcileOrdersJobParams{
		Logger:   logg,
		Parents:  ordersRepo,
		Orders:   ordersService,
		Lookback: cfg.Cron.ReconcileLookback,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build reconcile job", err)
		os.Exit(1)
	}

	purgeJob, err := cron.NewPurgeResetTokensJob(cron.PurgeResetTokensJobParams{
		Logger: logg,
		Tokens: auth.NewTokenRepository(conn),
		MaxAge: cfg.Cron.ResetTokenMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build token purge job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob, purgeJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(ctx, "starting cron worker")

	if !cfg.Cron.DisableMetricsHTTP {
		go serveMetrics(ctx, logg, cfg.Cron.MetricsListenAddr)
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	logg.Info(logg.WithField(ctx, "addr", addr), "metrics listener starting")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics listener stopped", err)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
