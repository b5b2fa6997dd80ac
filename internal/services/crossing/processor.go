// Package crossing turns per-frame tracker output into stop-line crossing
// events. Each track is logged at most once per session.
package crossing

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/geometry"
	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/logging"
	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/eventlog"
	"stopline-worker-go/internal/services/region"
	"stopline-worker-go/internal/services/tracking"
)

// PlateReader reads the best plate from a vehicle region
type PlateReader interface {
	Recognize(ctx context.Context, region image.Image) (models.PlateCandidate, bool, error)
}

type Options struct {
	Line    models.StopLine
	ClassID int

	// RetryWhilePast keeps retrying recognition on every frame after a failed
	// crossing read while the vehicle stays past the line. Without it a
	// failed read is only retried on the next crossing.
	RetryWhilePast bool

	SessionID string

	// Snapshot attaches a JPEG of the vehicle region to each event
	Snapshot         bool
	SnapshotMaxWidth int
	SnapshotQuality  int

	Now    func() time.Time
	Logger *zerolog.Logger
}

// FrameResult summarises one ProcessFrame call
type FrameResult struct {
	Events              []models.CrossingEvent
	Considered          int
	Crossings           int
	Retries             int
	RecognitionFailures int
	Errors              int
}

// Processor applies the crossing rules to one session's frames. It is meant
// to be driven from a single goroutine; the track store it owns is safe to
// read concurrently.
type Processor struct {
	store  *tracking.Store
	reader PlateReader
	sink   eventlog.Sink
	opts   Options
	logger zerolog.Logger
}

func NewProcessor(store *tracking.Store, reader PlateReader, sink eventlog.Sink, opts Options) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SnapshotQuality <= 0 {
		opts.SnapshotQuality = helpers.HighQuality
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Processor{
		store:  store,
		reader: reader,
		sink:   sink,
		opts:   opts,
		logger: logger.With().Str("component", "crossing").Logger(),
	}
}

// Store exposes the track state owned by the processor
func (p *Processor) Store() *tracking.Store {
	return p.store
}

// ProcessFrame runs every detection of a frame through the crossing rules.
// Failures are logged per detection and never abort the frame.
func (p *Processor) ProcessFrame(ctx context.Context, meta models.FrameMetadata, frame models.Frame, detections []models.Detection) FrameResult {
	var res FrameResult
	for i := range detections {
		if ctx.Err() != nil {
			break
		}
		p.processDetection(ctx, meta, frame, detections[i], &res)
	}
	return res
}

func (p *Processor) processDetection(ctx context.Context, meta models.FrameMetadata, frame models.Frame, det models.Detection, res *FrameResult) {
	if !det.HasTrack() || det.ClassID != p.opts.ClassID {
		return
	}

	id := *det.TrackID
	logger := logging.WithTrack(p.logger, id).With().Int64("frame_id", meta.FrameID).Logger()

	defer func() {
		if r := recover(); r != nil {
			res.Errors++
			logger.Error().Interface("panic", r).Msg("Recovered from panic while processing detection")
		}
	}()

	res.Considered++
	sign := geometry.Side(p.opts.Line, det.Center)

	state, isNew := p.store.GetOrInit(id, sign)
	if isNew {
		logger.Debug().Float64("sign", sign).Msg("New track")
		return
	}
	defer p.store.UpdateSign(id, sign)

	if state.Recorded {
		return
	}

	crossed := geometry.Crossed(state.LastSign, sign)
	switch {
	case crossed:
		res.Crossings++
		logger.Debug().Float64("prev_sign", state.LastSign).Float64("sign", sign).Msg("Stop line crossed")
	case p.opts.RetryWhilePast && state.Pending && state.PendingSign*sign > 0:
		res.Retries++
	default:
		return
	}

	event, ok, err := p.readPlate(ctx, meta, frame, det, id)
	if err != nil {
		res.RecognitionFailures++
		logger.Warn().Err(err).Msg("Plate recognition failed")
	}
	if !ok {
		if err == nil {
			res.RecognitionFailures++
			logger.Debug().Msg("No plate found on crossing")
		}
		if p.opts.RetryWhilePast && crossed {
			p.store.MarkPending(id, sign)
		}
		return
	}

	// The track only counts as recorded once the event is written, so a
	// failed write is retried on the next crossing like a missed read.
	if err := p.sink.Log(ctx, event); err != nil {
		res.Errors++
		logger.Error().Err(err).Str("plate", event.Plate).Msg("Failed to log crossing event")
		if p.opts.RetryWhilePast && crossed {
			p.store.MarkPending(id, sign)
		}
		return
	}
	p.store.MarkRecorded(id)

	res.Events = append(res.Events, event)
	logger.Info().
		Str("plate", event.Plate).
		Float32("confidence", event.Confidence).
		Msg("Crossing logged")
}

func (p *Processor) readPlate(ctx context.Context, meta models.FrameMetadata, frame models.Frame, det models.Detection, id int64) (models.CrossingEvent, bool, error) {
	img, ok := region.ExtractDetection(frame, det)
	if !ok {
		return models.CrossingEvent{}, false, nil
	}

	cand, found, err := p.reader.Recognize(ctx, img)
	if err != nil {
		return models.CrossingEvent{}, false, fmt.Errorf("recognize track %d: %w", id, err)
	}
	if !found {
		return models.CrossingEvent{}, false, nil
	}

	event := models.CrossingEvent{
		Plate:      cand.Plate,
		Timestamp:  p.opts.Now(),
		TrackID:    id,
		FrameID:    meta.FrameID,
		Confidence: cand.Confidence,
		SessionID:  p.opts.SessionID,
	}

	if p.opts.Snapshot {
		data, err := helpers.Snapshot(img, p.opts.SnapshotMaxWidth, p.opts.SnapshotQuality)
		if err != nil {
			p.logger.Warn().Err(err).Int64("track_id", id).Msg("Failed to encode crossing snapshot")
		} else {
			event.Snapshot = data
		}
	}
	return event, true, nil
}
