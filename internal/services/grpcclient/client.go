// Package grpcclient holds the connection handling shared by the remote
// tracker and plate recognition engines.
package grpcclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"

	"stopline-worker-go/internal/models"
)

// ErrBackoff is returned while the client waits out consecutive failures
var ErrBackoff = fmt.Errorf("%w: in backoff period after consecutive failures", models.ErrEngineUnavailable)

// Client manages one gRPC connection with lazy connect and exponential backoff
type Client struct {
	name     string
	endpoint string

	mu   sync.RWMutex
	conn *grpc.ClientConn

	// Retry management
	lastFailTime     time.Time
	consecutiveFails int
	maxRetryBackoff  time.Duration
}

// New creates a client for endpoint; the connection is made on first use
func New(name, endpoint string) *Client {
	return &Client{
		name:            name,
		endpoint:        endpoint,
		maxRetryBackoff: 30 * time.Second,
	}
}

// NewWithConn wraps an existing connection
func NewWithConn(name string, conn *grpc.ClientConn) *Client {
	return &Client{
		name:            name,
		endpoint:        conn.Target(),
		conn:            conn,
		maxRetryBackoff: 30 * time.Second,
	}
}

// Connect establishes the connection if it is missing or broken
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		state := c.conn.GetState()
		if state != connectivity.TransientFailure && state != connectivity.Shutdown {
			return nil
		}
		c.conn.Close()
		c.conn = nil
	}

	target, creds, err := ParseEndpoint(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse %s endpoint %s: %w", c.name, c.endpoint, err)
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("failed to connect to %s at %s: %w", c.name, target, err)
	}

	c.conn = conn
	c.consecutiveFails = 0

	log.Info().
		Str("service", c.name).
		Str("original_endpoint", c.endpoint).
		Str("normalized_endpoint", target).
		Bool("use_tls", creds.Info().SecurityProtocol == "tls").
		Msg("gRPC connection initialized")

	return nil
}

// Invoke calls a unary method, connecting first when needed
func (c *Client) Invoke(ctx context.Context, method string, req, resp proto.Message) error {
	if !c.shouldRetry() {
		return ErrBackoff
	}
	if err := c.Connect(); err != nil {
		c.recordFailure()
		return err
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if err := conn.Invoke(ctx, method, req, resp); err != nil {
		c.recordFailure()
		return fmt.Errorf("%s call %s failed: %w", c.name, method, err)
	}

	c.mu.Lock()
	c.consecutiveFails = 0
	c.mu.Unlock()
	return nil
}

// HealthCheck queries the standard gRPC health service
func (c *Client) HealthCheck(ctx context.Context, service string) error {
	if err := c.Connect(); err != nil {
		return err
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("%s health check failed: %w", c.name, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s not serving: %s", c.name, resp.GetStatus())
	}
	return nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil

	log.Info().Str("service", c.name).Msg("gRPC connection closed")
	return err
}

// shouldRetry determines if we should attempt a call based on exponential backoff
func (c *Client) shouldRetry() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.consecutiveFails == 0 {
		return true
	}

	// Exponential backoff: 1s, 2s, 4s, 8s, 16s, 30s (max)
	backoff := time.Duration(1<<uint(min(c.consecutiveFails-1, 16))) * time.Second
	if backoff > c.maxRetryBackoff {
		backoff = c.maxRetryBackoff
	}
	return time.Since(c.lastFailTime) >= backoff
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFails++
	c.lastFailTime = time.Now()

	if c.consecutiveFails <= 5 {
		log.Warn().
			Str("service", c.name).
			Int("consecutive_fails", c.consecutiveFails).
			Msg("gRPC failure recorded")
	}
}

// ParseEndpoint normalizes host[:port] or URL endpoints into a dial target and
// transport credentials. Ports 443/8443/9443 and bare hostnames use TLS.
func ParseEndpoint(endpoint string) (string, credentials.TransportCredentials, error) {
	if !strings.Contains(endpoint, "://") {
		if strings.Contains(endpoint, ".") && !strings.Contains(endpoint, ":") {
			endpoint = "https://" + endpoint + ":443"
		} else if strings.Contains(endpoint, ":") {
			parts := strings.Split(endpoint, ":")
			if len(parts) == 2 {
				if port, err := strconv.Atoi(parts[1]); err == nil {
					if port == 443 || port == 8443 || port == 9443 {
						endpoint = "https://" + endpoint
					} else {
						endpoint = "http://" + endpoint
					}
				} else {
					endpoint = "http://" + endpoint
				}
			}
		} else {
			endpoint = "https://" + endpoint + ":443"
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}

	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = u.Hostname() + ":443"
		case "http":
			host = u.Hostname() + ":80"
		default:
			return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
		}
	}

	var creds credentials.TransportCredentials
	switch u.Scheme {
	case "https":
		creds = credentials.NewTLS(&tls.Config{ServerName: u.Hostname()})
	case "http":
		creds = insecure.NewCredentials()
	default:
		return "", nil, fmt.Errorf("unsupported scheme: %s (supported: http, https)", u.Scheme)
	}

	return host, creds, nil
}
