// Package recognition adapts external license plate engines.
package recognition

import (
	"context"
	"image"
	"strings"
	"time"

	"stopline-worker-go/internal/models"
)

// Engine is an external plate recognition engine. It returns every
// candidate reading it found in img.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]models.PlateCandidate, error)
}

// Recognizer picks the best plate reading for a vehicle region
type Recognizer struct {
	engine  Engine
	timeout time.Duration
}

// NewRecognizer wraps engine. A zero timeout leaves the caller's deadline alone.
func NewRecognizer(engine Engine, timeout time.Duration) *Recognizer {
	return &Recognizer{engine: engine, timeout: timeout}
}

// Recognize returns the highest confidence plate in region. Empty regions
// short-circuit without calling the engine. Engine errors are returned as is
// so the caller decides the failure policy.
func (r *Recognizer) Recognize(ctx context.Context, region image.Image) (models.PlateCandidate, bool, error) {
	if region == nil || region.Bounds().Empty() {
		return models.PlateCandidate{}, false, nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	candidates, err := r.engine.Recognize(ctx, region)
	if err != nil {
		return models.PlateCandidate{}, false, err
	}

	best, ok := Best(candidates)
	best.Plate = strings.TrimSpace(best.Plate)
	if !ok || best.Plate == "" {
		return models.PlateCandidate{}, false, nil
	}
	return best, true, nil
}

// Best returns the candidate with maximum confidence; ties keep the first
func Best(candidates []models.PlateCandidate) (models.PlateCandidate, bool) {
	if len(candidates) == 0 {
		return models.PlateCandidate{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}
