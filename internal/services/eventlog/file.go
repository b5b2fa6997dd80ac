package eventlog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/models"
)

// FileSink writes "<plate> <YYYY-MM-DD HH:MM:SS>" lines. The file is opened
// once and every line is flushed as soon as it is written.
type FileSink struct {
	path string

	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	closed bool
}

// OpenFile opens path for the session, truncating it unless appending
func OpenFile(path string, appendMode bool) (*FileSink, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}

	log.Info().Str("path", path).Bool("append", appendMode).Msg("Event log opened")
	return &FileSink{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) Log(_ context.Context, event models.CrossingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.w.WriteString(event.LogLine() + "\n"); err != nil {
		return fmt.Errorf("failed to write event log %s: %w", s.path, err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush event log %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the file. Calling it twice is harmless.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.w.Flush()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close event log %s: %w", s.path, err)
	}
	return flushErr
}
