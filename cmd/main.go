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

	"taxiapp/api"
	"taxiapp/config"
	"taxiapp/pkg/bot"
	"taxiapp/pkg/events"
	"taxiapp/pkg/logger"
	"taxiapp/service"
	"taxiapp/storage"
	"taxiapp/storage/cache"
	"taxiapp/storage/memory"
	"taxiapp/storage/postgres"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// 3. Initialize Storage
	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize storage", logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	// 4. Event publishers (best effort, all optional)
	pub := newPublisher(cfg, log)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warning("error while closing publishers", logger.Error(err))
		}
	}()

	// 5. HTTP server
	svc := service.New(store, pub, log, cfg.RequestTimeout)
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.AppPort),
		Handler: api.New(api.Options{
			ServiceName: cfg.ServiceName,
			Service:     svc,
			Pinger:      store,
			Log:         log,
		}),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server is starting...", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", logger.Error(err))
			os.Exit(1)
		}
	}()

	// 6. Graceful Shutdown listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", logger.Error(err))
	}
	if err := svc.Flush(shutdownCtx); err != nil {
		log.Warning("pending events were not published", logger.Error(err))
	}
}

func newStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	var store storage.IStorage
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warning("using in-memory storage, data is lost on restart")
		store = memory.New()
	case config.StoragePostgres:
		pgStore, err := postgres.New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.RedisHost == "" {
		return store, nil
	}
	rdb, err := cache.NewRedis(ctx, cfg, log)
	if err != nil {
		// The cache is optional; serve straight from storage.
		log.Warning("car cache disabled", logger.Error(err))
		return store, nil
	}
	return cache.New(store, rdb, cfg.RedisTTL, log), nil
}

func newPublisher(cfg config.Config, log logger.ILogger) events.IPublisher {
	var pubs events.Multi

	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQ(cfg.RabbitMQURL, cfg.EventsExchange, log)
		if err != nil {
			log.Warning("RabbitMQ events disabled", logger.Error(err))
		} else {
			pubs = append(pubs, rmq)
		}
	}

	if cfg.TelegramBotToken != "" && cfg.AdminID != 0 {
		adminBot, err := bot.New(&cfg, log)
		if err != nil {
			log.Warning("Telegram notifications disabled", logger.Error(err))
		} else {
			pubs = append(pubs, adminBot)
		}
	}

	if len(pubs) == 0 {
		return events.Nop()
	}
	return pubs
}
