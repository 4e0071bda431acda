package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/hr-management/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status      HealthStatus          `json:"status"`
	Uptime      float64               `json:"uptime"`
	Environment string                `json:"environment"`
	Timestamp   time.Time             `json:"timestamp"`
	Components  map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	*transport.BaseHandler
	db          Pinger
	environment string
	startedAt   time.Time
}

func NewHealthHandler(base *transport.BaseHandler, db Pinger, environment string) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		db:          db,
		environment: environment,
		startedAt:   time.Now(),
	}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health reports process uptime and database reachability; an unreachable database answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}
	if err := h.db.PingContext(ctx); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	entry.DurationMs = time.Since(start).Milliseconds()

	resp := HealthResponse{
		Status:      entry.Status,
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.environment,
		Timestamp:   time.Now().UTC(),
		Components:  map[string]CheckEntry{"database": entry},
	}

	statusCode := http.StatusOK
	if entry.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, statusCode, resp)
}
