package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/models"
)

// Requester sends a request and waits for the reply
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

type natsReply struct {
	Candidates []models.PlateCandidate `json:"candidates"`
	Error      string                  `json:"error,omitempty"`
}

// NATSEngine sends the JPEG region on a request subject and reads JSON candidates back
type NATSEngine struct {
	requester Requester
	subject   string
	quality   int
}

func NewNATSEngine(requester Requester, subject string) *NATSEngine {
	return &NATSEngine{requester: requester, subject: subject, quality: helpers.HighQuality}
}

func (e *NATSEngine) Recognize(ctx context.Context, img image.Image) ([]models.PlateCandidate, error) {
	jpegBytes, err := helpers.EncodeJPEG(img, e.quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plate region: %w", err)
	}

	data, err := e.requester.Request(ctx, e.subject, jpegBytes)
	if err != nil {
		return nil, fmt.Errorf("plate request on %s failed: %w", e.subject, err)
	}

	var reply natsReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("invalid plate reply: %w", err)
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}
	return reply.Candidates, nil
}
