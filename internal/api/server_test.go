package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stopline-worker-go/internal/api/handlers"
	"stopline-worker-go/internal/config"
	"stopline-worker-go/internal/metrics"
	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/eventlog"
	"stopline-worker-go/internal/worker"
)

type fakeSession struct{ info worker.Info }

func (f fakeSession) Info() worker.Info { return f.info }

type failingLister struct{}

func (failingLister) Recent(context.Context, int) ([]models.CrossingEvent, error) {
	return nil, errors.New("database is locked")
}

func testConfig() *config.Config {
	return &config.Config{
		Version:      "1.2.3",
		WorkerID:     "worker-test",
		Port:         8000,
		RecentEvents: 3,
	}
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	s, err := NewServer(testConfig(), deps)
	require.NoError(t, err)
	return s.Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func seededRing(t *testing.T, n int) *eventlog.Ring {
	t.Helper()
	ring := eventlog.NewRing(10)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		require.NoError(t, ring.Log(context.Background(), models.CrossingEvent{
			Plate:     "P" + string(rune('0'+i)),
			TrackID:   int64(i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}
	return ring
}

func TestNewServerRequiresEvents(t *testing.T) {
	_, err := NewServer(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newTestServer(t, Deps{
			Events: eventlog.NewRing(1),
			Checks: map[string]handlers.HealthCheckFunc{
				"tracker": func(context.Context) error { return nil },
			},
		})
		rec := get(t, h, "/health")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		var resp handlers.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "worker-test", resp.WorkerID)
		assert.Equal(t, map[string]string{"tracker": "healthy"}, resp.Components)
	})

	t.Run("degraded", func(t *testing.T) {
		h := newTestServer(t, Deps{
			Events: eventlog.NewRing(1),
			Checks: map[string]handlers.HealthCheckFunc{
				"tracker":    func(context.Context) error { return nil },
				"recognizer": func(context.Context) error { return errors.New("connection refused") },
			},
		})
		rec := get(t, h, "/health")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp handlers.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy: connection refused", resp.Components["recognizer"])
	})
}

func TestWorkerInfo(t *testing.T) {
	rec := get(t, newTestServer(t, Deps{Events: eventlog.NewRing(1)}), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.WorkerInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Contains(t, resp.Capabilities, "stop_line_crossing")
}

func TestSession(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		rec := get(t, newTestServer(t, Deps{Events: eventlog.NewRing(1)}), "/session")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("live session", func(t *testing.T) {
		info := worker.Info{
			ID:       "abc",
			State:    worker.StateRunning,
			StopLine: models.StopLine{P2: models.Point{X: 100}},
			ClassID:  models.ClassCar,
			Stats:    worker.Stats{Frames: 10, Events: 2},
		}
		h := newTestServer(t, Deps{Events: eventlog.NewRing(1), Session: fakeSession{info: info}})

		rec := get(t, h, "/session")
		require.Equal(t, http.StatusOK, rec.Code)

		var got worker.Info
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "abc", got.ID)
		assert.Equal(t, int64(10), got.Stats.Frames)
		assert.Equal(t, 100.0, got.StopLine.P2.X)
	})
}

func TestCrossings(t *testing.T) {
	h := newTestServer(t, Deps{Events: seededRing(t, 5)})

	tests := []struct {
		name   string
		query  string
		status int
		want   []int64
	}{
		{name: "default capped by config", query: "", status: http.StatusOK, want: []int64{5, 4, 3}},
		{name: "explicit limit", query: "?limit=2", status: http.StatusOK, want: []int64{5, 4}},
		{name: "limit above cap", query: "?limit=50", status: http.StatusOK, want: []int64{5, 4, 3}},
		{name: "zero", query: "?limit=0", status: http.StatusBadRequest},
		{name: "garbage", query: "?limit=abc", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/crossings"+tt.query)
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}

			var resp handlers.CrossingsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			var ids []int64
			for _, e := range resp.Crossings {
				ids = append(ids, e.TrackID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}

	t.Run("empty list is an array", func(t *testing.T) {
		rec := get(t, newTestServer(t, Deps{Events: eventlog.NewRing(1)}), "/crossings")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"count":0,"crossings":[]}`, rec.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		rec := get(t, newTestServer(t, Deps{Events: failingLister{}}), "/crossings")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.FramesRead.Add(7)

	rec := get(t, newTestServer(t, Deps{Events: eventlog.NewRing(1), Metrics: m}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stopline_frames_read_total 7")

	rec = get(t, newTestServer(t, Deps{Events: eventlog.NewRing(1)}), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t, Deps{Events: eventlog.NewRing(1)})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestAPIInfo(t *testing.T) {
	rec := get(t, newTestServer(t, Deps{Events: eventlog.NewRing(1)}), "/api/info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"swagger_ui":"/docs/index.html"`)
}
