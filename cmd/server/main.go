package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoteldesk/internal/api"
	"hoteldesk/internal/config"
	"hoteldesk/internal/events"
	"hoteldesk/internal/logging"
	"hoteldesk/internal/metrics"
	"hoteldesk/internal/service"
	"hoteldesk/internal/store"
	"hoteldesk/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := events.NewNotifier()
	st, cleanup, err := initStore(ctx, cfg, notifier, &logger)
	if err != nil {
		return err
	}
	defer cleanup()

	bookingService := service.NewBookingService(st, cfg.Store.Collection, &logger)
	dashboardService := service.NewDashboardService(st, cfg.Store.Collection, cfg.Inventory, &logger)
	if err := dashboardService.Start(ctx); err != nil {
		logger.Warn().Err(err).Msg("dashboard subscription unavailable, falling back to on-demand reports")
	}
	defer dashboardService.Close()

	httpServer := api.NewHTTPServer(cfg, bookingService, dashboardService, &logger)

	if cfg.Exports.Enabled {
		interval := time.Duration(cfg.Exports.IntervalMinutes) * time.Minute
		exportWorker := worker.NewExportWorker(bookingService, cfg.Exports.Path, interval, worker.RetryPolicy{}, &logger)
		go exportWorker.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "server-main")

	return cfg, logger, closer, nil
}

// initStore builds the document store for the configured driver. Redis and
// sqlite are wrapped in a failover to the in-memory store when enabled, so a
// hosted-store outage degrades to ephemeral writes instead of hard errors.
func initStore(ctx context.Context, cfg *config.Config, notifier *events.Notifier, logger *zerolog.Logger) (store.Store, func(), error) {
	cleanup := func() {}

	var primary store.Store
	switch cfg.Store.Driver {
	case config.DriverRedis:
		client := store.NewRedisClient(cfg.Store.Redis)
		if err := store.Ping(ctx, client); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Store.Redis.Address).Msg("redis unavailable at startup")
		} else {
			logger.Info().Str("addr", cfg.Store.Redis.Address).Msg("redis connected")
		}
		primary = store.NewRedisStore(client, notifier)
		cleanup = func() { _ = store.Close(client) }

	case config.DriverSQLite:
		sqliteStore, err := store.NewSQLiteStore(cfg.Store.SQLite.Path, notifier)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite store: %w", err)
		}
		logger.Info().Str("path", cfg.Store.SQLite.Path).Msg("sqlite store opened")
		primary = sqliteStore
		cleanup = func() { _ = sqliteStore.Close() }

	case config.DriverMemory:
		primary = store.NewMemoryStore(notifier)

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	st := store.NewInstrumented(primary, cfg.Store.Driver)
	if cfg.Store.Failover && cfg.Store.Driver != config.DriverMemory {
		fallback := store.NewMemoryStore(notifier)
		return store.NewFailoverStore(st, fallback, logger), cleanup, nil
	}
	return st, cleanup, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
