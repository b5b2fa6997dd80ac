// Package eventlog persists crossing events. Sinks keep arrival order and do
// no deduplication of their own.
package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/models"
)

// ErrClosed is returned by sinks used after Close
var ErrClosed = errors.New("event sink closed")

// Sink receives crossing events in detection order
type Sink interface {
	Log(ctx context.Context, event models.CrossingEvent) error
	Close() error
}

// RecentLister returns the newest events first
type RecentLister interface {
	Recent(ctx context.Context, limit int) ([]models.CrossingEvent, error)
}

// MultiSink writes every event to a primary sink and then fans it out to
// secondary sinks. Only the primary decides whether the event was logged;
// secondary failures are reported through the logger.
type MultiSink struct {
	primary   Sink
	secondary []Sink
}

func NewMultiSink(primary Sink, secondary ...Sink) *MultiSink {
	return &MultiSink{primary: primary, secondary: secondary}
}

// Log returns the primary error untouched and skips the secondary sinks in
// that case, so a retried event never reaches them twice.
func (m *MultiSink) Log(ctx context.Context, event models.CrossingEvent) error {
	if err := m.primary.Log(ctx, event); err != nil {
		return err
	}
	for _, s := range m.secondary {
		if err := s.Log(ctx, event); err != nil {
			log.Warn().
				Err(err).
				Str("sink", fmt.Sprintf("%T", s)).
				Int64("track_id", event.TrackID).
				Msg("Secondary event sink failed")
		}
	}
	return nil
}

func (m *MultiSink) Close() error {
	errs := []error{m.primary.Close()}
	for _, s := range m.secondary {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
