package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.FramesRead.Add(3)
	m.Crossings.Add(1)
	m.EventsLogged.Add(1)
	m.UpdateFrameLatency(42 * time.Millisecond)
	m.ObserveRecognition(120 * time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "stopline_frames_read_total 3")
	assert.Contains(t, body, "stopline_crossings_total 1")
	assert.Contains(t, body, "stopline_events_logged_total 1")
	assert.Contains(t, body, "stopline_frame_latency_ms 42")
	assert.Contains(t, body, "stopline_recognition_seconds_count 1")
	assert.Contains(t, body, "stopline_tracks 0")
}

func TestTrackSource(t *testing.T) {
	m := New()
	n := 0
	m.SetTrackSource(func() int { return n })
	n = 5

	assert.Contains(t, scrape(t, m), "stopline_tracks 5")
}
