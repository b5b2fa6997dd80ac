package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stopline-worker-go/internal/config"
)

func TestNewServiceUnreachable(t *testing.T) {
	cfg := &config.Config{
		WorkerID:           "test",
		NatsURL:            "nats://127.0.0.1:1",
		NatsConnectTimeout: 200 * time.Millisecond,
		NatsReconnectWait:  10 * time.Millisecond,
		NatsMaxReconnects:  0,
	}

	_, err := NewService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestDisconnectedService(t *testing.T) {
	s := &Service{cfg: &config.Config{}}

	assert.False(t, s.IsConnected())
	assert.ErrorIs(t, s.Publish("crossings", map[string]string{"plate": "A"}), ErrNotConnected)

	_, err := s.Request(context.Background(), "lpr.recognize", []byte("x"))
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, s.Shutdown(context.Background()))
}
