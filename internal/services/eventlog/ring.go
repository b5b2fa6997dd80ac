package eventlog

import (
	"context"
	"sync"

	"stopline-worker-go/internal/models"
)

// Ring keeps the last few events in memory for the API
type Ring struct {
	mu     sync.RWMutex
	events []models.CrossingEvent
	next   int
	full   bool
}

func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{events: make([]models.CrossingEvent, size)}
}

func (r *Ring) Log(_ context.Context, event models.CrossingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.Snapshot = nil
	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (r *Ring) Recent(_ context.Context, limit int) ([]models.CrossingEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.events)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]models.CrossingEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out, nil
}

func (r *Ring) Close() error { return nil }
