package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"stopline-worker-go/internal/logging"
)

// HealthCheckFunc probes one dependency; nil means healthy
type HealthCheckFunc func(ctx context.Context) error

type HealthHandler struct {
	WorkerID string
	Version  string
	checks   map[string]HealthCheckFunc
	timeout  time.Duration
}

func NewHealthHandler(workerID, version string, checks map[string]HealthCheckFunc) *HealthHandler {
	return &HealthHandler{
		WorkerID: workerID,
		Version:  version,
		checks:   checks,
		timeout:  2 * time.Second,
	}
}

type HealthResponse struct {
	Status     string            `json:"status" example:"healthy"`
	WorkerID   string            `json:"worker_id" example:"worker-1"`
	Components map[string]string `json:"components,omitempty"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"worker-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check the worker and its remote engines
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", WorkerID: h.WorkerID}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Components = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				logging.Warn(c).Err(err).Str("component", name).Msg("Health check failed")
				resp.Components[name] = "unhealthy: " + err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Components[name] = "healthy"
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.WorkerID,
		Status:   "running",
		Version:  h.Version,
		Capabilities: []string{
			"stop_line_crossing",
			"plate_logging",
			"annotated_output",
		},
	})
}
