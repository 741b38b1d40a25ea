package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/Foodshareclub/foodshare-ops/internal/config"
	"github.com/Foodshareclub/foodshare-ops/internal/health"
	"github.com/Foodshareclub/foodshare-ops/internal/observability/logging"
	"github.com/Foodshareclub/foodshare-ops/internal/worker"
)

// cycleTimeout bounds one probe cycle across all targets.
const cycleTimeout = 2 * time.Minute

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	client := initRedis(logger, cfg.RedisURL)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := worker.NewMetrics()
	prober := setupProber(logger, client, cfg)

	healthServer := worker.NewHealthServer(cfg.ListenAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startMetricsServer(ctx, logger, cfg.MetricsAddr)
	startCron(logger, cfg, prober, metrics, healthServer)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	healthServer.SetReady(false)
	cancel()
}

// initRedis parses the Redis URL and creates the client.
func initRedis(logger *slog.Logger, redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL", slog.Any("error", err))
		os.Exit(1)
	}
	return redis.NewClient(opts)
}

// setupProber builds the same probe targets the API serves: the store ping
// plus the declared services.
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

// startMetricsServer serves Prometheus metrics until the context is
// cancelled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// startCron schedules the probe cycle and marks the worker ready.
func startCron(logger *slog.Logger, cfg config.App, prober *health.Prober, metrics *worker.Metrics, healthServer *worker.HealthServer) {
	c := cron.New()

	_, err := c.AddFunc(cfg.ProbeSchedule, func() {
		runProbeCycle(logger, prober, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job",
			slog.String("schedule", cfg.ProbeSchedule),
			slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.ProbeSchedule))
}

// runProbeCycle executes one scheduled probe cycle with a bounded timeout.
func runProbeCycle(logger *slog.Logger, prober *health.Prober, metrics *worker.Metrics) {
	start := time.Now()
	logger.Info("probe cycle started")

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	records, totalLatency := prober.Run(ctx)
	overall := health.Overall(records)

	status := "success"
	if overall == health.StatusDown {
		status = "failure"
	}
	metrics.RecordCycle(status, time.Since(start))

	logger.Info("probe cycle completed",
		slog.String("overall", string(overall)),
		slog.Int("services", len(records)),
		slog.Float64("total_latency_ms", totalLatency),
		slog.Duration("duration", time.Since(start)),
	)
}
