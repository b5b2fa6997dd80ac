package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"
	"time"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/models"
	"stopline-worker-go/internal/services/grpcclient"
)

// TrackMethod takes the JPEG frame as BytesValue (frame id in the
// "x-frame-id" metadata) and answers with a Struct holding
// {"detections": [{"cx","cy","w","h","class_id","track_id","score"}]}.
const TrackMethod = "/tracking.Tracker/Track"

const frameIDKey = "x-frame-id"

// GRPCTracker sends every frame to a remote detector with persistent tracking
type GRPCTracker struct {
	client  *grpcclient.Client
	quality int
	timeout time.Duration
}

// NewGRPCTracker wraps client. A zero timeout leaves the caller's deadline alone.
func NewGRPCTracker(client *grpcclient.Client, timeout time.Duration) *GRPCTracker {
	return &GRPCTracker{client: client, quality: helpers.MediumQuality, timeout: timeout}
}

func (t *GRPCTracker) Track(ctx context.Context, frameID int64, frame models.Frame) ([]models.Detection, error) {
	img, ok := frame.(image.Image)
	if !ok {
		img = frame.SubImage(frame.Bounds())
	}

	jpegBytes, err := helpers.EncodeJPEG(img, t.quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %w", frameID, err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	ctx = metadata.AppendToOutgoingContext(ctx, frameIDKey, strconv.FormatInt(frameID, 10))
	resp := &structpb.Struct{}
	if err := t.client.Invoke(ctx, TrackMethod, wrapperspb.Bytes(jpegBytes), resp); err != nil {
		return nil, fmt.Errorf("track frame %d: %w", frameID, err)
	}
	return DetectionsFromStruct(resp), nil
}

// HealthCheck checks the remote tracker via the gRPC health service
func (t *GRPCTracker) HealthCheck(ctx context.Context) error {
	return t.client.HealthCheck(ctx, "tracking.Tracker")
}

func (t *GRPCTracker) Close() error {
	return t.client.Close()
}

// DetectionsFromStruct decodes the detection list. Entries without a box are
// skipped; a missing or negative track_id leaves the detection untracked.
func DetectionsFromStruct(s *structpb.Struct) []models.Detection {
	list := s.GetFields()["detections"].GetListValue().GetValues()
	out := make([]models.Detection, 0, len(list))
	for _, v := range list {
		fields := v.GetStructValue().GetFields()
		if fields["cx"] == nil || fields["cy"] == nil {
			continue
		}

		w := wireDetection{
			CX:      fields["cx"].GetNumberValue(),
			CY:      fields["cy"].GetNumberValue(),
			W:       fields["w"].GetNumberValue(),
			H:       fields["h"].GetNumberValue(),
			ClassID: int(fields["class_id"].GetNumberValue()),
			Score:   float32(fields["score"].GetNumberValue()),
		}
		if tv, ok := fields["track_id"]; ok {
			if _, isNull := tv.GetKind().(*structpb.Value_NullValue); !isNull {
				if id := tv.GetNumberValue(); id >= 0 && id == math.Trunc(id) {
					tid := int64(id)
					w.TrackID = &tid
				}
			}
		}
		if !w.valid() {
			continue
		}
		out = append(out, w.toModel())
	}
	return out
}
