package eventlog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"stopline-worker-go/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteSink stores crossings in a local SQLite database so they can be
// queried after the session.
type SQLiteSink struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	seq     int64
	session string
	closed  bool
}

// OpenSQLite opens (or creates) the database at path and migrates it
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// modernc sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteSink{db: db, path: path}
	if err := db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM crossings").Scan(&s.seq); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read crossing sequence: %w", err)
	}

	log.Info().Str("path", path).Int64("existing", s.seq).Msg("SQLite event store ready")
	return s, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: that would close db as well

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Log(ctx context.Context, event models.CrossingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.seq++
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crossings (id, session_id, track_id, plate, confidence, frame_id, occurred_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		event.SessionID,
		event.TrackID,
		event.Plate,
		float64(event.Confidence),
		event.FrameID,
		event.Timestamp.Format(time.RFC3339Nano),
		s.seq,
	)
	if err != nil {
		s.seq--
		return fmt.Errorf("failed to insert crossing for track %d: %w", event.TrackID, err)
	}
	s.session = event.SessionID
	return nil
}

// Recent returns up to limit stored crossings, newest first
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]models.CrossingEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, track_id, plate, confidence, frame_id, occurred_at
		FROM crossings
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query crossings: %w", err)
	}
	defer rows.Close()

	var events []models.CrossingEvent
	for rows.Next() {
		var (
			ev         models.CrossingEvent
			confidence float64
			occurredAt string
		)
		if err := rows.Scan(&ev.SessionID, &ev.TrackID, &ev.Plate, &confidence, &ev.FrameID, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan crossing: %w", err)
		}
		ev.Confidence = float32(confidence)
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return nil, fmt.Errorf("invalid occurred_at %q: %w", occurredAt, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of crossings stored for a session
func (s *SQLiteSink) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crossings WHERE session_id = ?", sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count crossings: %w", err)
	}
	return n, nil
}

func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.session != "" {
		if n, err := s.Count(context.Background(), s.session); err == nil {
			log.Info().Str("path", s.path).Str("session_id", s.session).Int("stored", n).Msg("Crossings persisted")
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite %s: %w", s.path, err)
	}
	return nil
}
