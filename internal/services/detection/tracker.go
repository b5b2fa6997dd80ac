// Package detection supplies per-frame tracked detections, either from a
// remote detector/tracker service or from a recorded tracker output file.
package detection

import (
	"context"
	"math"

	"stopline-worker-go/internal/models"
)

// Tracker returns the tracked detections for one frame. Frame ids start at 1
// and increase by one per decoded frame.
type Tracker interface {
	Track(ctx context.Context, frameID int64, frame models.Frame) ([]models.Detection, error)
	Close() error
}

// wireDetection is the box layout shared by the gRPC reply and replay files
type wireDetection struct {
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	ClassID int     `json:"class_id"`
	TrackID *int64  `json:"track_id,omitempty"`
	Score   float32 `json:"score,omitempty"`
}

func (w wireDetection) valid() bool {
	for _, v := range []float64{w.CX, w.CY, w.W, w.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// toModel converts the wire box. A negative track id means untracked, the
// same rule DetectionsFromStruct applies to gRPC replies.
func (w wireDetection) toModel() models.Detection {
	if w.TrackID != nil && *w.TrackID < 0 {
		w.TrackID = nil
	}
	return models.Detection{
		Center:  models.Point{X: w.CX, Y: w.CY},
		Width:   w.W,
		Height:  w.H,
		ClassID: w.ClassID,
		TrackID: w.TrackID,
		Score:   w.Score,
	}
}
