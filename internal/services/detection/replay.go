package detection

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/models"
)

type replayLine struct {
	Frame      int64           `json:"frame"`
	Detections []wireDetection `json:"detections"`
}

// ReplayTracker serves tracker output recorded earlier as JSON lines:
//
//	{"frame": 1, "detections": [{"cx": 50, "cy": 10, "w": 40, "h": 40, "class_id": 2, "track_id": 7}]}
//
// Frames without a line have no detections.
type ReplayTracker struct {
	path   string
	frames map[int64][]models.Detection
}

func NewReplayTracker(path string) (*ReplayTracker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file %s: %w", path, err)
	}
	defer f.Close()

	frames := make(map[int64][]models.Detection)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	total := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line replayLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid replay line: %w", path, lineNo, err)
		}
		for _, d := range line.Detections {
			if !d.valid() {
				log.Warn().Str("path", path).Int("line", lineNo).Msg("Skipping replay detection with invalid box")
				continue
			}
			frames[line.Frame] = append(frames[line.Frame], d.toModel())
			total++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay file %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("frames", len(frames)).Int("detections", total).Msg("Replay tracker loaded")
	return &ReplayTracker{path: path, frames: frames}, nil
}

func (r *ReplayTracker) Track(ctx context.Context, frameID int64, _ models.Frame) ([]models.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.frames[frameID], nil
}

// Frames returns how many frames have recorded detections
func (r *ReplayTracker) Frames() int {
	return len(r.frames)
}

func (r *ReplayTracker) Close() error { return nil }
