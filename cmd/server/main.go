package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"roomy-listing/internal/config"
	"roomy-listing/internal/handler"
	"roomy-listing/internal/service"
	"roomy-listing/pkg/logger"
	"roomy-listing/pkg/metadata"
	"roomy-listing/pkg/storage"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "config/dev.yaml", "Configuration file path")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}

	base := logger.New(cfg.Logger)
	logger.SetLogger(base)
	appLog := base.WithComponent("server")
	secureLog := logger.NewSecurityLogger(appLog)

	cache, err := storage.NewResultCache(storage.CacheConfig{
		Backend:    cfg.Cache.Backend,
		TTL:        time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		MaxEntries: cfg.Cache.MaxEntries,
		RedisURL:   cfg.Cache.RedisURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create result cache: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close result cache cleanly")
		}
	}()

	if pinger, ok := cache.(interface{ Ping(context.Context) error }); ok {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := pinger.Ping(pingCtx); err != nil {
			appLog.WithError(err).Warn("Cache backend unreachable, lookups will run uncached until it recovers")
		}
		cancel()
	}

	fetcher := metadata.NewFetcher(metadata.Options{
		Timeout:      time.Duration(cfg.Fetcher.TimeoutMs) * time.Millisecond,
		MaxRedirects: cfg.Fetcher.MaxRedirects,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		Logger:       base,
	})
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	svc := service.NewListingService(fetcher, cache, limiter, base)

	fiberApp := handler.NewApp(handler.ControllerConfig{
		Listings:      svc,
		Logger:        base,
		EnableMetrics: true,
	})

	secureLog.SafeInfo("Configuration loaded", map[string]interface{}{
		"config_path":   app.configPath,
		"cache_backend": cfg.Cache.Backend,
		"redis_url":     cfg.Cache.RedisURL,
		"timeout_ms":    cfg.Fetcher.TimeoutMs,
		"rate_rps":      cfg.RateLimit.RPS,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	serveErr := make(chan error, 1)
	go func() {
		appLog.WithField("addr", addr).Info("Starting roomy-listing server")
		serveErr <- fiberApp.Listen(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigChan:
		appLog.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutMs) * time.Millisecond
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	appLog.Info("Server stopped")
	return nil
}
