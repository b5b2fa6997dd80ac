package models

import (
	"image"
	"time"
)

// COCO class ids the tracker is expected to emit for road users
const (
	ClassPerson     = 0
	ClassBicycle    = 1
	ClassCar        = 2
	ClassMotorcycle = 3
	ClassBus        = 5
	ClassTruck      = 7
)

// Point is a 2D position in frame pixel coordinates
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Detection is one tracker output for a single frame.
// TrackID is nil when the tracker could not assign an identity.
type Detection struct {
	Center  Point   `json:"center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ClassID int     `json:"class_id"`
	TrackID *int64  `json:"track_id,omitempty"`
	Score   float32 `json:"score,omitempty"`
}

// HasTrack reports whether the tracker assigned an identity to the detection
func (d Detection) HasTrack() bool {
	return d.TrackID != nil
}

// Frame is a decoded raster frame. *image.RGBA and friends satisfy it, as
// does the gocv-backed frame produced by the capture service.
type Frame interface {
	Bounds() image.Rectangle
	SubImage(r image.Rectangle) image.Image
}

// FrameMetadata contains frame-level information
type FrameMetadata struct {
	FrameID   int64     `json:"frame_id"`
	Timestamp time.Time `json:"timestamp"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Total     int64     `json:"total_frames,omitempty"`
}

// PlateCandidate is one reading returned by a plate recognition engine
type PlateCandidate struct {
	Plate      string  `json:"plate"`
	Confidence float32 `json:"confidence"`
}

// VideoInfo describes an opened video source. TotalFrames is 0 when the
// container does not report a frame count.
type VideoInfo struct {
	Path        string  `json:"path"`
	FPS         float64 `json:"fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	TotalFrames int64   `json:"total_frames"`
}
