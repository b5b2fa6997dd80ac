// Package worker runs one stop-line session: it pulls frames from a video
// source, gets tracked detections for each, applies the crossing rules and
// writes the resulting events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stopline-worker-go/internal/config"
	"stopline-worker-go/internal/logging"
	"stopline-worker-go/internal/metrics"
	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/crossing"
	"stopline-worker-go/internal/services/detection"
	"stopline-worker-go/internal/services/eventlog"
	"stopline-worker-go/internal/services/tracking"
)

// FrameSource yields decoded frames in order. Next returns
// models.ErrNoFrames once the input is exhausted.
type FrameSource interface {
	Info() models.VideoInfo
	Next(ctx context.Context) (models.Frame, models.FrameMetadata, error)
	Close() error
}

// FrameWriter receives every processed frame with its annotation
type FrameWriter interface {
	Write(frame models.Frame, ann models.FrameAnnotation) error
	Close() error
}

// Deps are the components a session drives. The session closes all of them
// when Run returns. Writer and Metrics are optional.
type Deps struct {
	Source  FrameSource
	Tracker detection.Tracker
	Reader  crossing.PlateReader
	Sink    eventlog.Sink
	Writer  FrameWriter
	Metrics *metrics.Metrics
}

// Session states
const (
	StatePending  = "pending"
	StateRunning  = "running"
	StateFinished = "finished"
	StateAborted  = "aborted"
)

type Stats struct {
	Frames              int64         `json:"frames"`
	Detections          int64         `json:"detections"`
	Crossings           int64         `json:"crossings"`
	Events              int64         `json:"events"`
	RecognitionFailures int64         `json:"recognition_failures"`
	TrackerErrors       int64         `json:"tracker_errors"`
	Errors              int64         `json:"errors"`
	Tracks              int           `json:"tracks"`
	RecordedTracks      int           `json:"recorded_tracks"`
	Duration            time.Duration `json:"duration_ns"`
}

// Info is the live view of a session served by the API
type Info struct {
	ID        string           `json:"id"`
	State     string           `json:"state"`
	Video     models.VideoInfo `json:"video"`
	StopLine  models.StopLine  `json:"stop_line"`
	ClassID   int              `json:"class_id"`
	RetryMode string           `json:"retry_mode"`
	StartedAt time.Time        `json:"started_at,omitempty"`
	Stats     Stats            `json:"stats"`
}

type Session struct {
	id        string
	cfg       *config.Config
	deps      Deps
	store     *tracking.Store
	processor *crossing.Processor
	logger    zerolog.Logger

	mu        sync.RWMutex
	state     string
	startedAt time.Time
	stats     Stats
}

func NewSession(cfg *config.Config, deps Deps) *Session {
	id := uuid.NewString()
	logger := logging.WithSession(logging.NewServiceLogger(cfg, "session"), id)

	reader := deps.Reader
	if deps.Metrics != nil {
		reader = &timedReader{next: reader, metrics: deps.Metrics}
	}

	store := tracking.NewStore()
	processor := crossing.NewProcessor(store, reader, deps.Sink, crossing.Options{
		Line:             cfg.StopLine,
		ClassID:          cfg.ClassID,
		RetryWhilePast:   cfg.RetryMode == config.RetryModeWhilePast,
		SessionID:        id,
		Snapshot:         cfg.SnapshotEnabled,
		SnapshotMaxWidth: cfg.SnapshotMaxWidth,
		SnapshotQuality:  cfg.SnapshotQuality,
		Logger:           &logger,
	})

	if deps.Metrics != nil {
		deps.Metrics.SetTrackSource(store.Len)
	}

	return &Session{
		id:        id,
		cfg:       cfg,
		deps:      deps,
		store:     store,
		processor: processor,
		logger:    logger,
		state:     StatePending,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Stats returns a snapshot of the counters; safe to call while Run is active
func (s *Session) Stats() Stats {
	s.mu.RLock()
	st := s.stats
	started := s.startedAt
	state := s.state
	s.mu.RUnlock()

	st.Tracks = s.store.Len()
	st.RecordedTracks = s.store.Recorded()
	if state == StateRunning {
		st.Duration = time.Since(started)
	}
	return st
}

func (s *Session) Info() Info {
	s.mu.RLock()
	state, started := s.state, s.startedAt
	s.mu.RUnlock()

	return Info{
		ID:        s.id,
		State:     state,
		Video:     s.deps.Source.Info(),
		StopLine:  s.cfg.StopLine,
		ClassID:   s.cfg.ClassID,
		RetryMode: s.cfg.RetryMode,
		StartedAt: started,
		Stats:     s.Stats(),
	}
}

// Run processes frames until the source is exhausted or ctx is cancelled.
// Cancellation is a normal stop: everything written so far is flushed and the
// error is nil. The returned error only reports failures closing components.
func (s *Session) Run(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	s.state = StateRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	info := s.deps.Source.Info()
	s.logger.Info().
		Str("video", info.Path).
		Int64("total_frames", info.TotalFrames).
		Str("stop_line", s.cfg.StopLine.String()).
		Int("class_id", s.cfg.ClassID).
		Str("retry_mode", s.cfg.RetryMode).
		Msg("Session started")

	aborted := s.loop(ctx)
	closeErr := s.close()

	s.mu.Lock()
	s.stats.Duration = time.Since(s.startedAt)
	if aborted {
		s.state = StateAborted
	} else {
		s.state = StateFinished
	}
	s.mu.Unlock()

	stats := s.Stats()
	s.logger.Info().
		Bool("aborted", aborted).
		Int64("frames", stats.Frames).
		Int64("crossings", stats.Crossings).
		Int64("events", stats.Events).
		Int64("recognition_failures", stats.RecognitionFailures).
		Int("tracks", stats.Tracks).
		Int("recorded_tracks", stats.RecordedTracks).
		Dur("duration", stats.Duration).
		Msg("Session finished")

	return stats, closeErr
}

func (s *Session) loop(ctx context.Context) (aborted bool) {
	progressEvery := int64(s.cfg.ProgressEvery)
	if progressEvery <= 0 {
		progressEvery = 100
	}

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Stop requested, ending session")
			return true
		}

		frame, meta, err := s.deps.Source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrNoFrames):
				return false
			case ctx.Err() != nil:
				s.logger.Info().Msg("Stop requested, ending session")
				return true
			default:
				s.logger.Warn().Err(err).Msg("Unreadable frame, treating as end of input")
				return false
			}
		}

		start := time.Now()
		s.processFrame(ctx, frame, meta)
		if s.deps.Metrics != nil {
			s.deps.Metrics.FramesRead.Add(1)
			s.deps.Metrics.UpdateFrameLatency(time.Since(start))
		}

		if meta.FrameID%progressEvery == 0 {
			st := s.Stats()
			s.logger.Info().
				Int64("frame_id", meta.FrameID).
				Int64("total_frames", meta.Total).
				Int64("crossings", st.Crossings).
				Int64("events", st.Events).
				Int("tracks", st.Tracks).
				Msg("Session progress")
		}
	}
}

func (s *Session) processFrame(ctx context.Context, frame models.Frame, meta models.FrameMetadata) {
	dets, err := s.deps.Tracker.Track(ctx, meta.FrameID, frame)
	trackerFailed := err != nil
	if trackerFailed {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Int64("frame_id", meta.FrameID).Msg("Tracker failed, frame has no detections")
		}
		dets = nil
	}

	res := s.processor.ProcessFrame(ctx, meta, frame, dets)

	s.mu.Lock()
	s.stats.Frames++
	s.stats.Detections += int64(len(dets))
	s.stats.Crossings += int64(res.Crossings)
	s.stats.Events += int64(len(res.Events))
	s.stats.RecognitionFailures += int64(res.RecognitionFailures)
	s.stats.Errors += int64(res.Errors)
	if trackerFailed {
		s.stats.TrackerErrors++
	}
	logged := s.stats.Events
	s.mu.Unlock()

	if m := s.deps.Metrics; m != nil {
		m.Detections.Add(uint64(len(dets)))
		m.Crossings.Add(uint64(res.Crossings))
		m.EventsLogged.Add(uint64(len(res.Events)))
		m.RecognitionFailures.Add(uint64(res.RecognitionFailures))
		m.ProcessErrors.Add(uint64(res.Errors))
		if trackerFailed {
			m.TrackerErrors.Add(1)
		}
	}

	if s.deps.Writer == nil {
		return
	}
	ann := models.FrameAnnotation{
		Meta:       meta,
		Line:       s.cfg.StopLine,
		ClassID:    s.cfg.ClassID,
		Detections: dets,
		Crossings:  int(logged),
		IsRecorded: func(id int64) bool {
			st, ok := s.store.Get(id)
			return ok && st.Recorded
		},
	}
	if err := s.deps.Writer.Write(frame, ann); err != nil {
		s.logger.Warn().Err(err).Int64("frame_id", meta.FrameID).Msg("Failed to write annotated frame")
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecorderErrors.Add(1)
		}
	}
}

func (s *Session) close() error {
	var errs []error
	if err := s.deps.Sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event sink: %w", err))
	}
	if s.deps.Writer != nil {
		if err := s.deps.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output video: %w", err))
		}
	}
	if err := s.deps.Tracker.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close tracker: %w", err))
	}
	if err := s.deps.Source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}
	return errors.Join(errs...)
}

// timedReader records recognition latency
type timedReader struct {
	next    crossing.PlateReader
	metrics *metrics.Metrics
}

func (t *timedReader) Recognize(ctx context.Context, region image.Image) (models.PlateCandidate, bool, error) {
	start := time.Now()
	defer func() { t.metrics.ObserveRecognition(time.Since(start)) }()
	return t.next.Recognize(ctx, region)
}
