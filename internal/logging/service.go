package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithSession(base zerolog.Logger, sessionID string) zerolog.Logger {
	return base.With().Str("session_id", sessionID).Logger()
}

func WithTrack(base zerolog.Logger, trackID int64) zerolog.Logger {
	return base.With().Int64("track_id", trackID).Logger()
}
