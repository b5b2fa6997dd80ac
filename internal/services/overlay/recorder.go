package overlay

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"stopline-worker-go/internal/helpers"
	"stopline-worker-go/internal/models"
)

const codec = "mp4v"

type matProvider interface {
	Mat() *gocv.Mat
}

// Recorder writes annotated frames to a video file
type Recorder struct {
	path      string
	writer    *gocv.VideoWriter
	lineColor color.RGBA

	mu       sync.Mutex
	frames   int64
	failures int64
	closed   bool
}

// NewRecorder creates the output at path with the source fps and size.
// overlayColor is a "#RRGGBB" string; invalid values fall back to red.
func NewRecorder(path string, info models.VideoInfo, overlayColor string) (*Recorder, error) {
	writer, err := gocv.VideoWriterFile(path, codec, info.FPS, info.Width, info.Height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create output video %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("failed to create output video %s: writer not opened", path)
	}

	lineColor, err := helpers.ParseHexColor(overlayColor)
	if err != nil {
		log.Warn().Err(err).Str("overlay_color", overlayColor).Msg("Invalid overlay color, using red")
		lineColor = color.RGBA{R: 255, A: 255}
	}

	log.Info().
		Str("path", path).
		Str("codec", codec).
		Float64("fps", info.FPS).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("Annotated output video opened")

	return &Recorder{path: path, writer: writer, lineColor: lineColor}, nil
}

// Write draws ann onto frame and appends it to the output. Gocv frames are
// drawn in place.
func (r *Recorder) Write(frame models.Frame, ann models.FrameAnnotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder %s closed", r.path)
	}

	mat, release, err := toMat(frame)
	if err != nil {
		r.failures++
		return err
	}
	defer release()

	DrawStopLine(mat, ann.Line, r.lineColor)
	DrawDetections(mat, ann)
	DrawStatus(mat, ann, r.lineColor)

	if err := r.writer.Write(*mat); err != nil {
		r.failures++
		return fmt.Errorf("failed to write frame %d: %w", ann.Meta.FrameID, err)
	}
	r.frames++
	return nil
}

func toMat(frame models.Frame) (*gocv.Mat, func(), error) {
	if mp, ok := frame.(matProvider); ok {
		return mp.Mat(), func() {}, nil
	}

	mat, err := gocv.ImageToMatRGB(frame.SubImage(frame.Bounds()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return &mat, func() { mat.Close() }, nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	log.Info().Str("path", r.path).Int64("frames", r.frames).Int64("failures", r.failures).Msg("Annotated output video closed")
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output video %s: %w", r.path, err)
	}
	return nil
}
