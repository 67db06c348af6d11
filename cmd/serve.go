package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/api"
	"github.com/UnknownOlympus/anvesh/internal/apikey"
	"github.com/UnknownOlympus/anvesh/internal/browser"
	"github.com/UnknownOlympus/anvesh/internal/config"
	"github.com/UnknownOlympus/anvesh/internal/events"
	"github.com/UnknownOlympus/anvesh/internal/geocoding"
	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/orchestrator"
	"github.com/UnknownOlympus/anvesh/internal/ratelimit"
	"github.com/UnknownOlympus/anvesh/internal/repository"
	"github.com/UnknownOlympus/anvesh/internal/scraper"
	"github.com/UnknownOlympus/anvesh/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// geocoderRateLimit is the Google client budget in requests per second, shared by all workers.
const geocoderRateLimit = 50

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, task orchestrator and lead geocoder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cfg := config.MustLoad()
			return serve(ctx, cfg, setupLogger(cfg.Env))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	pool, err := repository.NewDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err = repository.Migrate(repository.DSN(cfg.Database), logger); err != nil {
		return err
	}
	repo := repository.NewRepository(pool, logger)

	launcher, err := browser.NewPlaywright(cfg.Scraper.Headless, logger)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := launcher.Close(); errClose != nil {
			logger.Error("Failed to close browser", "error", errClose)
		}
	}()

	limiter := newLimiter(ctx, cfg, logger)
	publisher := newPublisher(cfg, logger)
	defer func() {
		if errClose := publisher.Close(); errClose != nil {
			logger.Error("Failed to close lead event publisher", "error", errClose)
		}
	}()

	keys := apikey.NewService(repo, cfg.APIKeyPrefix, logger)
	engine := scraper.NewEngine(scraperOptions(cfg.Scraper), logger, appMetrics)
	orch := orchestrator.New(ctx, launcher, engine, repo, keys, publisher, logger, appMetrics)

	if cfg.Geocoder.Provider != "" {
		geocoder, errGeo := newGeocoder(cfg.Geocoder, repo, appMetrics, logger)
		if errGeo != nil {
			return errGeo
		}
		go geocoder.Run(ctx)
	}

	server := api.NewServer(api.Deps{
		Tasks:       orch,
		Keys:        keys,
		Gate:        apikey.NewGate(keys, limiter),
		Leads:       repo,
		DB:          pool,
		Gatherer:    reg,
		AdminSecret: cfg.AdminSecret,
		Log:         logger,
		Metrics:     appMetrics,
	})

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")
	errServe := server.Run(ctx, cfg.Port)

	logger.InfoContext(ctx, "Shutdown signal received. Stopping running tasks...")
	const shutdownTimeout = 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = orch.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tasks did not stop in time", "error", err)
	}

	logger.Info("Application stopped gracefully.")
	return errServe
}

func scraperOptions(cfg config.ScraperConfig) scraper.Options {
	opts := scraper.DefaultOptions()
	opts.ScrollSettle = cfg.ScrollSettle
	opts.HydrateWait = cfg.HydrateWait
	opts.MaxStalls = cfg.MaxStalls
	opts.ClickAttempts = cfg.ClickAttempts
	return opts
}

// newLimiter prefers Redis so the per-minute rate holds across replicas.
func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-process rate limiter")
		return ratelimit.NewLocalLimiter()
	}

	limiter := ratelimit.NewRedisLimiter(cfg.RedisAddr, "anvesh:rate:")
	if err := limiter.Ping(ctx); err != nil {
		logger.Warn("Redis is unreachable, using in-process rate limiter", "addr", cfg.RedisAddr, "error", err)
		_ = limiter.Close()
		return ratelimit.NewLocalLimiter()
	}
	return limiter
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.Kafka.Broker == "" {
		logger.Info("KAFKA_BROKER not set, lead events are disabled")
		return events.Nop{}
	}
	logger.Info("Publishing lead events", "broker", cfg.Kafka.Broker, "topic", cfg.Kafka.Topic)
	return events.NewProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
}

func newGeocoder(
	cfg config.GeocoderConfig,
	store repository.GeocodingStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*service.LeadGeocoder, error) {
	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Provider),
		APIKey:    cfg.APIKey,
		RateLimit: geocoderRateLimit / max(cfg.Workers, 1),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	logger.Info("Geocoding provider initialized", "type", cfg.Provider)

	return service.NewLeadGeocoder(logger, store, provider, cfg.Provider, m, cfg.Workers, cfg.Interval), nil
}
