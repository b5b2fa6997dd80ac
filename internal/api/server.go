package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/api/handlers"
	"stopline-worker-go/internal/config"
	"stopline-worker-go/internal/metrics"
	"stopline-worker-go/internal/services/eventlog"
)

// Deps are the live components the API reads from
type Deps struct {
	Session handlers.SessionProvider
	Events  eventlog.RecentLister
	Metrics *metrics.Metrics
	Checks  map[string]handlers.HealthCheckFunc
}

type Server struct {
	config *config.Config
	deps   Deps
	router *gin.Engine
	server *http.Server

	healthHandler    *handlers.HealthHandler
	sessionHandler   *handlers.SessionHandler
	crossingsHandler *handlers.CrossingsHandler
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Events == nil {
		return nil, fmt.Errorf("api: an event lister is required")
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:           cfg,
		deps:             deps,
		router:           gin.New(),
		healthHandler:    handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, deps.Checks),
		sessionHandler:   handlers.NewSessionHandler(deps.Session),
		crossingsHandler: handlers.NewCrossingsHandler(deps.Events, cfg.RecentEvents),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s, nil
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting stop-line worker API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping stop-line worker API")
	return s.server.Shutdown(ctx)
}
