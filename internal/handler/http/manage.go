package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Foodshareclub/foodshare-ops/internal/handler/http/respond"
	"github.com/Foodshareclub/foodshare-ops/internal/health"
)

// Management actions accepted by the POST endpoint.
const (
	actionForceCheck          = "force_check"
	actionResetCircuitBreaker = "reset_circuit_breaker"
	actionResetMetrics        = "reset_metrics"
)

// ManageHandler serves /api/health/enterprise/manage: a GET view of all
// persisted records plus POST administrative actions.
type ManageHandler struct {
	Scheduler *health.Scheduler
}

// managedService is a persisted record enriched with the derived fields the
// dashboard renders.
type managedService struct {
	health.ServiceHealth
	NextCheckInMinutes   float64 `json:"nextCheckInMinutes"`
	CircuitBreakerActive bool    `json:"circuitBreakerActive"`
}

type manageSummary struct {
	Total                 int `json:"total"`
	Healthy               int `json:"healthy"`
	Degraded              int `json:"degraded"`
	Down                  int `json:"down"`
	CircuitBreakersActive int `json:"circuitBreakersActive"`
}

type manageResponse struct {
	Services []managedService  `json:"services"`
	Summary  manageSummary     `json:"summary"`
	Metrics  enterpriseMetrics `json:"metrics"`
}

type manageRequest struct {
	Action  string `json:"action"`
	Service string `json:"service,omitempty"`
}

type manageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ManageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.act(w, r)
	default:
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ManageHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.Scheduler.Store().ListServices(ctx)
	if err != nil {
		respond.InternalError(w, err)
		return
	}

	now := h.Scheduler.Now()
	services := make([]managedService, 0, len(records))
	summary := manageSummary{Total: len(records)}
	for _, rec := range records {
		remaining := rec.NextCheck.Sub(now).Minutes()
		if remaining < 0 {
			remaining = 0
		}
		services = append(services, managedService{
			ServiceHealth:        rec,
			NextCheckInMinutes:   remaining,
			CircuitBreakerActive: rec.CircuitBroken(),
		})

		switch rec.Status {
		case health.StatusHealthy:
			summary.Healthy++
		case health.StatusDegraded:
			summary.Degraded++
		case health.StatusDown:
			summary.Down++
		}
		if rec.CircuitBroken() {
			summary.CircuitBreakersActive++
		}
	}

	metrics, err := h.Scheduler.Store().GetMetrics(ctx)
	if err != nil {
		respond.InternalError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, manageResponse{
		Services: services,
		Summary:  summary,
		Metrics:  formatMetrics(metrics),
	})
}

func (h *ManageHandler) act(w http.ResponseWriter, r *http.Request) {
	var req manageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	var err error
	var msg string

	switch req.Action {
	case actionForceCheck:
		if req.Service == "" {
			respond.Error(w, http.StatusBadRequest, "action force_check requires a service")
			return
		}
		err = h.Scheduler.ForceCheck(ctx, req.Service)
		msg = "service " + req.Service + " scheduled for immediate check"
	case actionResetCircuitBreaker:
		if req.Service == "" {
			respond.Error(w, http.StatusBadRequest, "action reset_circuit_breaker requires a service")
			return
		}
		err = h.Scheduler.ResetService(ctx, req.Service)
		msg = "circuit breaker for " + req.Service + " reset"
	case actionResetMetrics:
		err = h.Scheduler.ResetMetrics(ctx)
		msg = "metrics reset"
	default:
		respond.Error(w, http.StatusBadRequest, "unknown action")
		return
	}

	if errors.Is(err, health.ErrServiceNotFound) {
		respond.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respond.InternalError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, manageResult{Success: true, Message: msg})
}

// withRequestTimeout bounds a management request so a stalled store cannot
// hold the connection open indefinitely.
func withRequestTimeout(d time.Duration, next http.Handler) http.Handler {
	return http.TimeoutHandler(next, d, `{"error":"request timed out"}`)
}
