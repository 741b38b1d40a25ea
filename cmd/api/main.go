package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Foodshareclub/foodshare-ops/internal/config"
	hhttp "github.com/Foodshareclub/foodshare-ops/internal/handler/http"
	"github.com/Foodshareclub/foodshare-ops/internal/health"
	"github.com/Foodshareclub/foodshare-ops/internal/observability/logging"
	"github.com/Foodshareclub/foodshare-ops/internal/observability/tracing"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg := loadConfig(logger)

	shutdownTracing := tracing.Setup()
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	client := initRedis(logger, cfg.RedisURL)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}()

	prober := setupProber(logger, client, cfg)
	router := hhttp.NewRouter(hhttp.RouterConfig{
		Prober:          prober,
		Logger:          logger,
		AdminSecret:     []byte(cfg.AdminSecret),
		ManageRateLimit: cfg.ManageRateLimit,
		ManageRateBurst: cfg.ManageRateBurst,
	})

	runServer(logger, cfg, router)
}

// loadConfig loads and validates the runtime configuration, exiting on any
// misconfiguration so the server never runs partially configured.
func loadConfig(logger *slog.Logger) config.App {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	return cfg
}

// initRedis parses the Redis URL and creates the client. Connectivity is not
// verified here: the store's own ping is one of the monitored services.
func initRedis(logger *slog.Logger, redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL", slog.Any("error", err))
		os.Exit(1)
	}
	return redis.NewClient(opts)
}

// setupProber builds the probe targets: the health store's own ping plus
// every service declared in the services file.
func setupProber(logger *slog.Logger, client *redis.Client, cfg config.App) *health.Prober {
	store := health.NewRedisStore(client)
	sched := health.NewScheduler(store, health.WithLogger(logger))

	targets := []health.Target{
		{Name: "redis", Probe: health.StorePingProbe(store)},
	}

	services, err := config.LoadServices(cfg.ServicesFile)
	if err != nil {
		logger.Error("failed to load services file",
			slog.String("path", cfg.ServicesFile),
			slog.Any("error", err))
		os.Exit(1)
	}
	for _, svc := range services {
		targets = append(targets, health.Target{
			Name:  svc.Name,
			Probe: health.HTTPProbe(nil, svc.Name, svc.URL),
		})
	}

	logger.Info("probe targets configured", slog.Int("count", len(targets)))
	return health.NewProber(sched, targets)
}

// runServer starts the API and metrics servers and blocks until a shutdown
// signal arrives.
func runServer(logger *slog.Logger, cfg config.App, router http.Handler) {
	apiServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("api server starting", slog.String("addr", cfg.ListenAddr))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	go func() {
		logger.Info("metrics server starting", slog.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	case sig := <-stop:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("api server shutdown failed", slog.Any("error", err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
	logger.Info("servers stopped")
}
