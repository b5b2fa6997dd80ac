package recognition

import (
	"context"
	"fmt"
	"image"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/grpcclient"
)

// RecognizeMethod is the unary method served by the plate engine. It takes
// the JPEG region as BytesValue and answers with a Struct holding
// {"candidates": [{"plate": "...", "confidence": 0.93}, ...]}.
const RecognizeMethod = "/lpr.PlateRecognizer/Recognize"

// GRPCEngine calls a remote plate recognition service
type GRPCEngine struct {
	client  *grpcclient.Client
	quality int
}

func NewGRPCEngine(client *grpcclient.Client) *GRPCEngine {
	return &GRPCEngine{client: client, quality: helpers.HighQuality}
}

func (e *GRPCEngine) Recognize(ctx context.Context, img image.Image) ([]models.PlateCandidate, error) {
	jpegBytes, err := helpers.EncodeJPEG(img, e.quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plate region: %w", err)
	}

	resp := &structpb.Struct{}
	if err := e.client.Invoke(ctx, RecognizeMethod, wrapperspb.Bytes(jpegBytes), resp); err != nil {
		return nil, err
	}
	return CandidatesFromStruct(resp), nil
}

// HealthCheck checks the remote engine via the gRPC health service
func (e *GRPCEngine) HealthCheck(ctx context.Context) error {
	return e.client.HealthCheck(ctx, "lpr.PlateRecognizer")
}

func (e *GRPCEngine) Close() error {
	return e.client.Close()
}

// CandidatesFromStruct decodes the candidate list; malformed entries are skipped
func CandidatesFromStruct(s *structpb.Struct) []models.PlateCandidate {
	list := s.GetFields()["candidates"].GetListValue().GetValues()
	out := make([]models.PlateCandidate, 0, len(list))
	for _, v := range list {
		fields := v.GetStructValue().GetFields()
		plate, ok := fields["plate"]
		if !ok {
			continue
		}
		out = append(out, models.PlateCandidate{
			Plate:      plate.GetStringValue(),
			Confidence: float32(fields["confidence"].GetNumberValue()),
		})
	}
	return out
}
