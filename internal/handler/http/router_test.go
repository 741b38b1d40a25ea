package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foodshareclub/foodshare-ops/internal/handler/http/auth"
	"github.com/Foodshareclub/foodshare-ops/internal/health"
)

func newTestRouter(t *testing.T, rateLimit float64, burst int) http.Handler {
	t.Helper()
	prober, _ := newTestProber(health.Target{Name: "redis", Probe: healthyProbe})
	return NewRouter(RouterConfig{
		Prober:          prober,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		AdminSecret:     []byte("0123456789abcdef0123456789abcdef"),
		ManageRateLimit: rateLimit,
		ManageRateBurst: burst,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, 5, 10)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/enterprise", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterManageRequiresAuth(t *testing.T) {
	router := newTestRouter(t, 5, 10)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/enterprise/manage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterManageWithToken(t *testing.T) {
	router := newTestRouter(t, 5, 10)

	token, err := auth.IssueToken([]byte("0123456789abcdef0123456789abcdef"), "ops", "admin", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/health/enterprise/manage", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterManageRateLimited(t *testing.T) {
	// Burst of 1 with a near-zero refill: the second request must be
	// rejected before it reaches auth.
	router := newTestRouter(t, 0.0001, 1)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/health/enterprise/manage", nil))
	assert.Equal(t, http.StatusUnauthorized, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/health/enterprise/manage", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRouterLiveness(t *testing.T) {
	router := newTestRouter(t, 5, 10)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
