package http

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Foodshareclub/foodshare-ops/internal/handler/http/auth"
	"github.com/Foodshareclub/foodshare-ops/internal/handler/http/requestid"
	"github.com/Foodshareclub/foodshare-ops/internal/health"
	"github.com/Foodshareclub/foodshare-ops/internal/observability/tracing"
)

// maxManageBodyBytes caps management POST bodies. Requests are tiny JSON
// action envelopes.
const maxManageBodyBytes = 4 << 10

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Prober      *health.Prober
	Logger      *slog.Logger
	AdminSecret []byte

	// ManageRateLimit and ManageRateBurst shape the token bucket guarding
	// the management endpoint.
	ManageRateLimit float64
	ManageRateBurst int
}

// NewRouter builds the API handler tree with the shared middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	healthHandler := &EnterpriseHealthHandler{Prober: cfg.Prober}
	mux.Handle("/api/health/enterprise", healthHandler)

	// The throttle sits outside auth so unauthenticated hammering is also
	// bounded.
	manageHandler := Chain(
		withRequestTimeout(30*time.Second, &ManageHandler{Scheduler: cfg.Prober.Scheduler()}),
		Throttle(rate.NewLimiter(rate.Limit(cfg.ManageRateLimit), cfg.ManageRateBurst)),
		LimitRequestBody(maxManageBodyBytes),
		auth.AdminOnly(cfg.AdminSecret),
	)
	mux.Handle("/api/health/enterprise/manage", manageHandler)

	// Liveness for the platform itself, independent of monitored services.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		Logging(cfg.Logger),
		Recover(cfg.Logger),
	)
}
