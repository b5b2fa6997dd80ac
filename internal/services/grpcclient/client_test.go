package grpcclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"stopline-worker-go/internal/models"
)

func startServer(t *testing.T, handler grpc.StreamHandler) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(handler))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	return conn
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		target   string
		tls      bool
	}{
		{"localhost:50052", "localhost:50052", false},
		{"10.0.0.5:8443", "10.0.0.5:8443", true},
		{"lpr.example.com", "lpr.example.com:443", true},
		{"http://lpr.internal", "lpr.internal:80", false},
		{"https://lpr.internal:9000", "lpr.internal:9000", true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			target, creds, err := ParseEndpoint(tt.endpoint)
			require.NoError(t, err)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.tls, creds.Info().SecurityProtocol == "tls")
		})
	}

	_, _, err := ParseEndpoint("ftp://lpr.internal")
	assert.Error(t, err)
}

func TestInvoke(t *testing.T) {
	conn := startServer(t, func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		if method != "/echo.Echo/Upper" {
			return status.Error(codes.Unimplemented, method)
		}
		req := &wrapperspb.StringValue{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		return stream.SendMsg(wrapperspb.String(req.GetValue() + "!"))
	})

	client := NewWithConn("echo", conn)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp := &wrapperspb.StringValue{}
	require.NoError(t, client.Invoke(ctx, "/echo.Echo/Upper", wrapperspb.String("abc"), resp))
	assert.Equal(t, "abc!", resp.GetValue())

	t.Run("failure enters backoff", func(t *testing.T) {
		err := client.Invoke(ctx, "/echo.Echo/Missing", wrapperspb.String("x"), resp)
		require.Error(t, err)
		assert.Equal(t, codes.Unimplemented, status.Code(err))

		err = client.Invoke(ctx, "/echo.Echo/Upper", wrapperspb.String("x"), resp)
		assert.ErrorIs(t, err, ErrBackoff)
		assert.ErrorIs(t, err, models.ErrEngineUnavailable)
	})
}

func TestHealthCheck(t *testing.T) {
	conn := startServer(t, func(_ any, _ grpc.ServerStream) error {
		return status.Error(codes.Unimplemented, "")
	})

	client := NewWithConn("health", conn)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, client.HealthCheck(ctx, ""))
}
