package recognition

import (
	"context"
	"errors"
	"image"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/grpcclient"
)

func TestCandidatesFromStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{"plate": "ABC123", "confidence": 0.5},
			map[string]interface{}{"confidence": 0.9},
			map[string]interface{}{"plate": "XYZ789", "confidence": 0.25},
		},
	})
	require.NoError(t, err)

	want := []models.PlateCandidate{
		{Plate: "ABC123", Confidence: 0.5},
		{Plate: "XYZ789", Confidence: 0.25},
	}
	if diff := cmp.Diff(want, CandidatesFromStruct(s)); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, CandidatesFromStruct(&structpb.Struct{}))
}

func TestGRPCEngine(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	var gotJPEG []byte
	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		if method != RecognizeMethod {
			return status.Error(codes.Unimplemented, method)
		}
		req := &wrapperspb.BytesValue{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		gotJPEG = req.GetValue()
		resp, _ := structpb.NewStruct(map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{"plate": "ABC123", "confidence": 0.97},
			},
		})
		return stream.SendMsg(resp)
	}))
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	engine := NewGRPCEngine(grpcclient.NewWithConn("lpr", conn))
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := engine.Recognize(ctx, image.NewRGBA(image.Rect(0, 0, 16, 8)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ABC123", got[0].Plate)
	require.GreaterOrEqual(t, len(gotJPEG), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, gotJPEG[:2])
}

type stubRequester struct {
	subject string
	reply   []byte
	err     error
}

func (s *stubRequester) Request(_ context.Context, subject string, _ []byte) ([]byte, error) {
	s.subject = subject
	return s.reply, s.err
}

func TestNATSEngine(t *testing.T) {
	region := image.NewRGBA(image.Rect(0, 0, 16, 8))

	t.Run("candidates", func(t *testing.T) {
		req := &stubRequester{reply: []byte(`{"candidates":[{"plate":"KA01AB1234","confidence":0.8}]}`)}
		got, err := NewNATSEngine(req, "lpr.recognize").Recognize(context.Background(), region)
		require.NoError(t, err)
		assert.Equal(t, "lpr.recognize", req.subject)
		assert.Equal(t, []models.PlateCandidate{{Plate: "KA01AB1234", Confidence: 0.8}}, got)
	})

	t.Run("remote error", func(t *testing.T) {
		req := &stubRequester{reply: []byte(`{"error":"model not loaded"}`)}
		_, err := NewNATSEngine(req, "lpr.recognize").Recognize(context.Background(), region)
		assert.EqualError(t, err, "model not loaded")
	})

	t.Run("transport error", func(t *testing.T) {
		boom := errors.New("no responders")
		req := &stubRequester{err: boom}
		_, err := NewNATSEngine(req, "lpr.recognize").Recognize(context.Background(), region)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("garbage reply", func(t *testing.T) {
		req := &stubRequester{reply: []byte("nope")}
		_, err := NewNATSEngine(req, "lpr.recognize").Recognize(context.Background(), region)
		assert.Error(t, err)
	})
}
