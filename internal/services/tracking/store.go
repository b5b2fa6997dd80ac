// Package tracking keeps the per-track crossing state for one session.
//
// Entries are never evicted: a session keeps every track id it has seen
// until the store is discarded. Trackers that recycle ids are not detected.
package tracking

import (
	"sync"

	"stopline-worker-go/internal/models"
)

// Store maps track identifiers to their crossing state
type Store struct {
	mu     sync.Mutex
	tracks map[int64]*models.TrackState
}

func NewStore() *Store {
	return &Store{tracks: make(map[int64]*models.TrackState)}
}

// GetOrInit returns the state for id, creating it with sign when absent.
// isNew reports whether the entry was created by this call.
func (s *Store) GetOrInit(id int64, sign float64) (state models.TrackState, isNew bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.tracks[id]; ok {
		return *st, false
	}
	st := &models.TrackState{LastSign: sign}
	s.tracks[id] = st
	return *st, true
}

// UpdateSign overwrites the last observed sign. Unknown ids are ignored.
func (s *Store) UpdateSign(id int64, sign float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.tracks[id]; ok {
		st.LastSign = sign
	}
}

// MarkRecorded flags id as logged. It never goes back to false.
func (s *Store) MarkRecorded(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.tracks[id]; ok {
		st.Recorded = true
		st.Pending = false
		st.PendingSign = 0
	}
}

// MarkPending remembers that id crossed onto side without a plate reading
func (s *Store) MarkPending(id int64, side float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.tracks[id]; ok && !st.Recorded {
		st.Pending = true
		st.PendingSign = side
	}
}

// Get returns a copy of the state for id
func (s *Store) Get(id int64) (models.TrackState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[id]
	if !ok {
		return models.TrackState{}, false
	}
	return *st, true
}

// Len returns the number of tracks seen this session
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// Recorded returns how many tracks have been logged
func (s *Store) Recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, st := range s.tracks {
		if st.Recorded {
			n++
		}
	}
	return n
}
