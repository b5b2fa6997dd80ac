package models

import (
	"fmt"
	"time"
)

// EventTimeLayout is the human readable local timestamp written to the event log
const EventTimeLayout = "2006-01-02 15:04:05"

// StopLine is the directed segment used as the crossing reference
type StopLine struct {
	P1 Point `json:"p1" yaml:"p1"`
	P2 Point `json:"p2" yaml:"p2"`
}

// Degenerate reports whether both endpoints coincide
func (l StopLine) Degenerate() bool {
	return l.P1 == l.P2
}

func (l StopLine) String() string {
	return fmt.Sprintf("(%.0f,%.0f)-(%.0f,%.0f)", l.P1.X, l.P1.Y, l.P2.X, l.P2.Y)
}

// TrackState is the crossing state kept per track identifier
type TrackState struct {
	LastSign float64 `json:"last_sign"`
	Recorded bool    `json:"recorded"`

	// Set when a crossing was seen but no plate could be read. PendingSign is
	// the side of the line the vehicle crossed onto.
	Pending     bool    `json:"pending,omitempty"`
	PendingSign float64 `json:"pending_sign,omitempty"`
}

// CrossingEvent is emitted once per track when its plate is read on a crossing
type CrossingEvent struct {
	Plate      string    `json:"plate"`
	Timestamp  time.Time `json:"timestamp"`
	TrackID    int64     `json:"track_id"`
	FrameID    int64     `json:"frame_id"`
	Confidence float32   `json:"confidence"`
	SessionID  string    `json:"session_id,omitempty"`

	// JPEG of the vehicle region the plate was read from, if kept
	Snapshot []byte `json:"-"`
}

// LogLine renders the event in the line-oriented log format
func (e CrossingEvent) LogLine() string {
	return e.Plate + " " + e.Timestamp.Format(EventTimeLayout)
}

// CrossingPayload is the structure published to NATS for each crossing
type CrossingPayload struct {
	SessionID  string    `json:"session_id"`
	WorkerID   string    `json:"worker_id"`
	Plate      string    `json:"plate"`
	Confidence float32   `json:"confidence"`
	TrackID    int64     `json:"track_id"`
	FrameID    int64     `json:"frame_id"`
	Timestamp  time.Time `json:"timestamp"`
	StopLine   StopLine  `json:"stop_line"`
	Snapshot   *string   `json:"snapshot,omitempty"`
}

// MessagePublisher interface for publishing payloads
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}

// FrameAnnotation is what the annotated output draws on top of a frame
type FrameAnnotation struct {
	Meta       FrameMetadata
	Line       StopLine
	ClassID    int
	Detections []Detection
	Crossings  int
	IsRecorded func(trackID int64) bool
}
