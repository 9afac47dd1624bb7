package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/api/routes"
	"github.com/feria-cr/feria-backend/internal/addresses"
	"github.com/feria-cr/feria-backend/internal/analytics"
	"github.com/feria-cr/feria-backend/internal/auth"
	"github.com/feria-cr/feria-backend/internal/cart"
	"github.com/feria-cr/feria-backend/internal/checkout"
	"github.com/feria-cr/feria-backend/internal/favorites"
	"github.com/feria-cr/feria-backend/internal/orders"
	"github.com/feria-cr/feria-backend/internal/products"
	"github.com/feria-cr/feria-backend/internal/reviews"
	"github.com/feria-cr/feria-backend/internal/stores"
	"github.com/feria-cr/feria-backend/internal/users"
	"github.com/feria-cr/feria-backend/pkg/auth/session"
	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db"
	"github.com/feria-cr/feria-backend/pkg/logger"
	"github.com/feria-cr/feria-backend/pkg/mailer"
	"github.com/feria-cr/feria-backend/pkg/metrics"
	"github.com/feria-cr/feria-backend/pkg/migrate"
	"github.com/feria-cr/feria-backend/pkg/outbox"
	"github.com/feria-cr/feria-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	userRepo := users.NewRepository(conn)
	storeRepo := stores.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:   userRepo,
		StoreRepo:  storeRepo,
		SessionMgr: sessionManager,
		JWTConfig:  cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Outbox:         outboxSvc,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	sender := mailer.Sender(mailer.NoopSender{})
	if cfg.Mail.SMTPHost != "" {
		smtp, err := mailer.NewSMTPSender(cfg.Mail, logg)
		if err != nil {
			return routes.Services{}, err
		}
		sender = smtp
	}

	passwordResetService, err := auth.NewPasswordResetService(auth.PasswordResetParams{
		Users:       userRepo,
		Tokens:      auth.NewTokenRepository(conn),
		Tx:          dbClient,
		Outbox:      outboxSvc,
		Mailer:      sender,
		PasswordCfg: cfg.Password,
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	usersService, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}
	addressesService, err := addresses.NewService(addresses.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	storesService, err := stores.NewService(storeRepo)
	if err != nil {
		return routes.Services{}, err
	}
	productsService, err := products.NewService(productRepo)
	if err != nil {
		return routes.Services{}, err
	}
	cartService, err := cart.NewService(cart.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(conn),
		dbClient,
		outboxSvc,
		cfg.Orders,
		metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutRepo := checkout.NewRepository(conn)
	checkoutService, err := checkout.NewService(
		func(tx *gorm.DB) checkout.Store { return checkoutRepo.WithTx(tx) },
		dbClient,
		outboxSvc,
		ordersService,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	favoritesService, err := favorites.NewService(favorites.NewRepository(conn), productRepo)
	if err != nil {
		return routes.Services{}, err
	}
	reviewsService, err := reviews.NewService(reviews.NewRepository(conn), dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}
	analyticsService, err := analytics.NewService(analytics.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Sessions:      sessionManager,
		Auth:          authService,
		Register:      registerService,
		PasswordReset: passwordResetService,
		Users:         usersService,
		Addresses:     addressesService,
		Stores:        storesService,
		Products:      productsService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Favorites:     favoritesService,
		Reviews:       reviewsService,
		Analytics:     analyticsService,
	}, nil
}
