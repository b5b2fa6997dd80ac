// Package streamcapture decodes video files frame by frame with OpenCV.
package streamcapture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"stopline-worker-go/internal/models"
)

const defaultFPS = 25.0

// Source reads frames sequentially from a video file. A frame returned by
// Next stays valid until the following call to Next or Close.
type Source struct {
	info models.VideoInfo
	cap  *gocv.VideoCapture
	mat  gocv.Mat

	frame   *MatFrame
	frameID int64
	done    bool
}

// Open opens path with the FFmpeg backend. Failing to open is fatal for a
// session, so the error names the path.
func Open(path string) (*Source, error) {
	cap, err := gocv.OpenVideoCaptureWithAPI(path, gocv.VideoCaptureFFmpeg)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("failed to open video %s: capture not opened", path)
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = defaultFPS
	}
	total := cap.Get(gocv.VideoCaptureFrameCount)
	if total < 0 {
		total = 0
	}

	info := models.VideoInfo{
		Path:        path,
		FPS:         fps,
		Width:       int(cap.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(cap.Get(gocv.VideoCaptureFrameHeight)),
		TotalFrames: int64(total),
	}

	log.Info().
		Str("path", path).
		Float64("fps", info.FPS).
		Int("width", info.Width).
		Int("height", info.Height).
		Int64("total_frames", info.TotalFrames).
		Msg("Video opened")

	s := &Source{
		info: info,
		cap:  cap,
		mat:  gocv.NewMat(),
	}
	s.frame = NewMatFrame(&s.mat)
	return s, nil
}

func (s *Source) Info() models.VideoInfo {
	return s.info
}

// Next decodes the next frame. An unreadable or empty frame ends the stream.
func (s *Source) Next(ctx context.Context) (models.Frame, models.FrameMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.FrameMetadata{}, err
	}
	if s.done {
		return nil, models.FrameMetadata{}, models.ErrNoFrames
	}

	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		s.done = true
		log.Debug().Str("path", s.info.Path).Int64("frames", s.frameID).Msg("Video exhausted")
		return nil, models.FrameMetadata{}, models.ErrNoFrames
	}

	s.frameID++
	s.frame.reset()

	meta := models.FrameMetadata{
		FrameID:   s.frameID,
		Timestamp: time.Now(),
		Width:     s.mat.Cols(),
		Height:    s.mat.Rows(),
		Total:     s.info.TotalFrames,
	}
	return s.frame, meta, nil
}

func (s *Source) Close() error {
	s.mat.Close()
	if err := s.cap.Close(); err != nil {
		return fmt.Errorf("failed to close video %s: %w", s.info.Path, err)
	}
	return nil
}
