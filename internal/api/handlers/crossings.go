package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stopline-worker-go/internal/logging"
	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/eventlog"
)

type CrossingsHandler struct {
	events   eventlog.RecentLister
	maxLimit int
}

func NewCrossingsHandler(events eventlog.RecentLister, maxLimit int) *CrossingsHandler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &CrossingsHandler{events: events, maxLimit: maxLimit}
}

type CrossingsResponse struct {
	Count     int                    `json:"count" example:"1"`
	Crossings []models.CrossingEvent `json:"crossings"`
}

// @Summary Recent crossings
// @Description Most recent logged crossings, newest first
// @Tags crossings
// @Produce json
// @Param limit query int false "Maximum number of events"
// @Success 200 {object} CrossingsResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /crossings [get]
func (h *CrossingsHandler) ListCrossings(c *gin.Context) {
	limit := h.maxLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, h.maxLimit)
	}

	events, err := h.events.Recent(c.Request.Context(), limit)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to list crossings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list crossings"})
		return
	}
	if events == nil {
		events = []models.CrossingEvent{}
	}

	c.JSON(http.StatusOK, CrossingsResponse{Count: len(events), Crossings: events})
}
