// Package messaging wraps the NATS connection shared by the plate engine
// requests and the crossing event publisher.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/config"
)

var ErrNotConnected = errors.New("nats connection not established")

type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name("stopline-worker-" + cfg.WorkerID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NatsURL, err)
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

// Publish marshals data as JSON and publishes it on subject
func (s *Service) Publish(subject string, data interface{}) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}

	return s.conn.Publish(subject, payload)
}

// Request sends data on subject and waits for a single reply or ctx expiry
func (s *Service) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if !s.IsConnected() {
		return nil, ErrNotConnected
	}

	msg, err := s.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("request on %s failed: %w", subject, err)
	}
	return msg.Data, nil
}

func (s *Service) IsConnected() bool {
	return s != nil && s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}

	// Try graceful drain with timeout, fallback to immediate close
	done := make(chan error, 1)
	go func() { done <- s.conn.Drain() }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	case <-ctx.Done():
		log.Warn().Msg("NATS drain timed out, closing immediately")
		s.conn.Close()
	}
	return nil
}
