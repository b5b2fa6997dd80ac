package tracking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stopline-worker-go/internal/models"
)

func TestGetOrInit(t *testing.T) {
	s := NewStore()

	st, isNew := s.GetOrInit(7, 120)
	assert.True(t, isNew)
	assert.Equal(t, models.TrackState{LastSign: 120}, st)

	st, isNew = s.GetOrInit(7, -50)
	assert.False(t, isNew)
	assert.Equal(t, 120.0, st.LastSign, "existing entry is returned unchanged")
	assert.Equal(t, 1, s.Len())
}

func TestUpdateSign(t *testing.T) {
	s := NewStore()
	s.GetOrInit(1, 3)

	s.UpdateSign(1, -4)
	st, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, -4.0, st.LastSign)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		s.UpdateSign(99, 1)
		_, ok := s.Get(99)
		assert.False(t, ok)
		assert.Equal(t, 1, s.Len())
	})
}

func TestMarkRecorded(t *testing.T) {
	s := NewStore()
	s.GetOrInit(3, 1)

	s.MarkRecorded(3)
	s.MarkRecorded(3)
	st, _ := s.Get(3)
	assert.True(t, st.Recorded)

	s.UpdateSign(3, -1)
	st, _ = s.Get(3)
	assert.True(t, st.Recorded, "sign updates never clear the flag")
	assert.Equal(t, 1, s.Recorded())

	s.MarkRecorded(42)
	assert.Equal(t, 1, s.Len())
}

func TestPending(t *testing.T) {
	s := NewStore()
	s.GetOrInit(5, 1)

	s.MarkPending(5, -1)
	st, _ := s.Get(5)
	assert.True(t, st.Pending)
	assert.Equal(t, -1.0, st.PendingSign)

	s.MarkRecorded(5)
	st, _ = s.Get(5)
	assert.False(t, st.Pending)

	s.MarkPending(5, 1)
	st, _ = s.Get(5)
	assert.False(t, st.Pending, "recorded tracks never go pending")
}

func TestConcurrentReaders(t *testing.T) {
	s := NewStore()
	for id := int64(0); id < 50; id++ {
		s.GetOrInit(id, 1)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for id := int64(0); id < 50; id++ {
			s.UpdateSign(id, -1)
			s.MarkRecorded(id)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			n := s.Recorded()
			assert.LessOrEqual(t, n, 50)
		}
	}()
	wg.Wait()

	assert.Equal(t, 50, s.Recorded())
	assert.Equal(t, 50, s.Len())
}
