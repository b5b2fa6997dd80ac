// Package region crops vehicle regions out of decoded frames.
package region

import (
	"image"
	"math"

	"stopline-worker-go/internal/models"
)

// Extract returns the part of frame covered by a w x h box centered at
// (cx, cy). Every edge is clamped to the frame, so out-of-range boxes are
// absorbed rather than rejected. ok is false when nothing is left after
// clamping.
func Extract(frame models.Frame, cx, cy, w, h float64) (image.Image, bool) {
	if frame == nil {
		return nil, false
	}

	r, ok := ClampBox(frame.Bounds(), cx, cy, w, h)
	if !ok {
		return nil, false
	}
	return frame.SubImage(r), true
}

// ExtractDetection is Extract for a tracker detection
func ExtractDetection(frame models.Frame, det models.Detection) (image.Image, bool) {
	return Extract(frame, det.Center.X, det.Center.Y, det.Width, det.Height)
}

// ClampBox converts a center/size box to pixel bounds clamped to bounds.
// Coordinates are truncated toward zero.
func ClampBox(bounds image.Rectangle, cx, cy, w, h float64) (image.Rectangle, bool) {
	for _, v := range []float64{cx, cy, w, h} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return image.Rectangle{}, false
		}
	}

	minX, maxX := float64(bounds.Min.X), float64(bounds.Max.X)
	minY, maxY := float64(bounds.Min.Y), float64(bounds.Max.Y)

	x1 := int(clamp(cx-w/2, minX, maxX))
	x2 := int(clamp(cx+w/2, minX, maxX))
	y1 := int(clamp(cy-h/2, minY, maxY))
	y2 := int(clamp(cy+h/2, minY, maxY))

	if x2 <= x1 || y2 <= y1 {
		return image.Rectangle{}, false
	}
	return image.Rect(x1, y1, x2, y2), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
