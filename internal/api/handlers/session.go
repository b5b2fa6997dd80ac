package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stopline-worker-go/internal/worker"
)

// SessionProvider exposes the live session
type SessionProvider interface {
	Info() worker.Info
}

type SessionHandler struct {
	session SessionProvider
}

func NewSessionHandler(session SessionProvider) *SessionHandler {
	return &SessionHandler{session: session}
}

// @Summary Current session
// @Description Live counters, stop line and video of the running session
// @Tags session
// @Produce json
// @Success 200 {object} worker.Info
// @Failure 404 {object} map[string]string
// @Router /session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	if h.session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, h.session.Info())
}
