package eventlog

import (
	"context"
	"fmt"

	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/models"
)

// NATSSink publishes every crossing as a JSON CrossingPayload
type NATSSink struct {
	publisher models.MessagePublisher
	subject   string
	workerID  string
	line      models.StopLine
}

func NewNATSSink(publisher models.MessagePublisher, subject, workerID string, line models.StopLine) *NATSSink {
	return &NATSSink{
		publisher: publisher,
		subject:   subject,
		workerID:  workerID,
		line:      line,
	}
}

func (s *NATSSink) Log(_ context.Context, event models.CrossingEvent) error {
	payload := models.CrossingPayload{
		SessionID:  event.SessionID,
		WorkerID:   s.workerID,
		Plate:      event.Plate,
		Confidence: event.Confidence,
		TrackID:    event.TrackID,
		FrameID:    event.FrameID,
		Timestamp:  event.Timestamp,
		StopLine:   s.line,
		Snapshot:   helpers.SnapshotB64(event.Snapshot),
	}

	if err := s.publisher.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("failed to publish crossing for track %d: %w", event.TrackID, err)
	}
	return nil
}

// Close is a no-op; the messaging service owns the connection
func (s *NATSSink) Close() error { return nil }
