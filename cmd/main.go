package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "choir-dashboard/docs"
	"choir-dashboard/internal/api"
	"choir-dashboard/internal/attendance"
	"choir-dashboard/internal/auth"
	"choir-dashboard/internal/concert"
	"choir-dashboard/internal/config"
	"choir-dashboard/internal/feed"
	"choir-dashboard/internal/live"
	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/storage"
	"choir-dashboard/internal/tenant"
)

// @title Choir Dashboard API
// @version 1.0
// @description Concert attendance and live branding for multi-tenant choirs
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	path := "config.yaml"
	if p := os.Getenv("CHOIR_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.New(logger.Config{}).Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded", zap.String("path", path))

	// Setup JWT Secret
	auth.SetSecret(cfg.Auth.JWTSecret)

	// Init record store
	db, err := storage.NewStorage(cfg.Database.Driver, cfg.Database.URL, storage.Options{
		Timeout:     cfg.Store.Timeout,
		ReadRetries: cfg.Store.ReadRetries,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("failed to init store", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("failed to migrate store", zap.Error(err))
	}
	log.Info("store ready", zap.Stringer("dialect", db.Dialect()))

	// Init notification feed
	var events feed.Feed
	switch cfg.Feed.Driver {
	case "rabbitmq":
		rabbit, err := feed.NewRabbitFeed(cfg.RabbitMQ.URL, cfg.Feed.Buffer, log)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		rabbit.Timeout = cfg.Feed.Timeout
		events = rabbit
	default:
		events = feed.NewHub(cfg.Feed.Buffer, log)
	}
	defer events.Close()
	log.Info("notification feed ready", zap.String("driver", cfg.Feed.Driver))

	// Init services
	apiHandler := api.NewAPI(
		tenant.NewResolver(db, log),
		attendance.NewLedger(db, events, log),
		concert.NewManager(db, events, log),
		live.NewChannel(db, events, log),
		log,
	)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Info("starting API server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", zap.Error(err))
	}

	log.Info("graceful shutdown complete")
}
