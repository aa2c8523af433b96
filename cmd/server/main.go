package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/metrics"
	"github.com/ikkim/storefront-backend/pkg/notify"
	redisclient "github.com/ikkim/storefront-backend/pkg/redis"
	"github.com/ikkim/storefront-backend/pkg/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"log_level":    logLevel,
		"cart_storage": cfg.Cart.Storage,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database holds store payment settings and, optionally, cart snapshots
	database, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()
	if err := db.Migrate(database); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if cfg.Server.Environment == "development" {
		if err := db.Seed(database); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	cartStorage, closeStorage := openCartStorage(ctx, cfg, database)
	defer closeStorage()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	notifier, err := notify.NewClient(notify.Config{
		URL:     cfg.Notification.URL,
		APIKey:  cfg.Notification.APIKey,
		Timeout: cfg.Notification.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to initialize order notifier", err)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	storeRepo := repository.NewStoreRepository(database)

	// Initialize services
	storeService := service.NewStoreService(storeRepo)
	cartService := service.NewCartService(cartStorage, service.CartServiceOptions{
		StorageKey:          cfg.Cart.StorageKey,
		AddDelay:            cfg.Cart.AddDelay,
		RecentlyAddedWindow: cfg.Cart.RecentlyAddedWindow,
		IdleTimeout:         cfg.Cart.IdleTimeout,
		Metrics:             checkoutMetrics,
	})
	checkoutService := service.NewCheckoutService(cartService, storeService, notifier, service.CheckoutOptions{
		PaymentWindow:  cfg.Checkout.PaymentWindow,
		RedirectDelay:  cfg.Checkout.RedirectDelay,
		DefaultLanding: cfg.Checkout.DefaultLanding,
		IdleTimeout:    cfg.Checkout.IdleTimeout,
		Retry: retry.Policy{
			MaxRetries: cfg.Notification.MaxRetries,
			BaseDelay:  cfg.Notification.BaseBackoff,
		},
		Metrics:   checkoutMetrics,
		Publisher: hub,
	})

	sweeper := scheduler.NewSessionSweeper(cfg.Checkout.SweepSchedule, checkoutService, cartService)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}
	defer sweeper.Stop()

	// Initialize controllers
	storeController := controller.NewStoreController(storeService)
	cartController := controller.NewCartController(cartService)
	checkoutController := controller.NewCheckoutController(checkoutService, cfg.Checkout.DefaultLanding)
	checkoutSocketController := controller.NewCheckoutSocketController(checkoutService, hub, cfg.CORS.AllowedOrigins)

	sessionMiddleware := middleware.NewSessionMiddleware(cfg.Session.Secret, cfg.Session.TTL)

	// Setup router
	r := router.NewRouter(
		storeController,
		cartController,
		checkoutController,
		checkoutSocketController,
		sessionMiddleware,
		registry,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	logger.Info("Server stopped successfully")
}

func openCartStorage(ctx context.Context, cfg *config.Config, database *gorm.DB) (repository.CartStorage, func()) {
	switch cfg.Cart.Storage {
	case "memory":
		return repository.NewMemoryCartStorage(), func() {}
	case "database":
		return repository.NewCartSnapshotRepository(database), func() {}
	}

	client, err := redisclient.Connect(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize redis", err)
	}
	return repository.NewRedisCartStorage(client, cfg.Cart.TTL), func() {
		if err := redisclient.Close(client); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}
}
