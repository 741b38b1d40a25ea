// Package config holds the runtime configuration of the ops service
// binaries: server addresses, the Redis connection, admin auth, and the
// monitored-services file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Foodshareclub/foodshare-ops/pkg/config"
)

// App is the configuration shared by the API server and the worker.
type App struct {
	// ListenAddr is the API server's listen address.
	ListenAddr string

	// MetricsAddr is the Prometheus metrics listen address (worker).
	MetricsAddr string

	// RedisURL is the connection URL of the health store
	// (redis://host:port/db).
	RedisURL string

	// AdminSecret signs and verifies admin bearer tokens for the
	// management endpoint. Minimum 32 bytes.
	AdminSecret string

	// ServicesFile is the path to the YAML file declaring monitored
	// services. Empty means only the store's own ping is monitored.
	ServicesFile string

	// ManageRateLimit is the sustained request rate allowed on the
	// management endpoint, with ManageRateBurst as the bucket size.
	ManageRateLimit float64
	ManageRateBurst int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// ProbeSchedule is the cron expression the worker probes on.
	ProbeSchedule string
}

// Load reads the configuration from the environment.
func Load() App {
	return App{
		ListenAddr:      config.GetEnvString("LISTEN_ADDR", ":8080"),
		MetricsAddr:     config.GetEnvString("METRICS_ADDR", ":9090"),
		RedisURL:        config.GetEnvString("REDIS_URL", "redis://localhost:6379/0"),
		AdminSecret:     config.GetEnvString("ADMIN_TOKEN_SECRET", ""),
		ServicesFile:    config.GetEnvString("SERVICES_FILE", ""),
		ManageRateLimit: float64(config.GetEnvInt("MANAGE_RATE_LIMIT", 5)),
		ManageRateBurst: config.GetEnvInt("MANAGE_RATE_BURST", 10),
		ShutdownTimeout: config.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ProbeSchedule:   config.GetEnvString("PROBE_SCHEDULE", "*/5 * * * *"),
	}
}

// Validate checks the loaded configuration. The admin secret is required
// and must not be trivially guessable.
func (a App) Validate() error {
	if a.AdminSecret == "" {
		return fmt.Errorf("ADMIN_TOKEN_SECRET must be set")
	}
	if len(a.AdminSecret) < 32 {
		return fmt.Errorf("ADMIN_TOKEN_SECRET must be at least 32 characters (256 bits)")
	}
	lower := strings.ToLower(a.AdminSecret)
	for _, weak := range []string{"secret", "password", "test", "admin", "default"} {
		if strings.HasPrefix(lower, weak) {
			return fmt.Errorf("ADMIN_TOKEN_SECRET must not start with a common weak value")
		}
	}
	if a.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if err := config.ValidatePositiveDuration(a.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	if a.ManageRateLimit <= 0 || a.ManageRateBurst <= 0 {
		return fmt.Errorf("management rate limit and burst must be positive")
	}
	return nil
}
