// Package store persists animation tracks and archived server log lines in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/creatures/console/internal/track"
)

var (
	// ErrTrackNotFound is returned when no track has the requested ID.
	ErrTrackNotFound = errors.New("track not found")

	// ErrCorrupted is returned when a stored frame blob cannot be decoded.
	ErrCorrupted = errors.New("stored track data corrupted")
)

// defaultCompressionLevel matches zstd's balanced default.
const defaultCompressionLevel = 3

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id           TEXT PRIMARY KEY,
	creature_id  TEXT NOT NULL,
	animation_id TEXT NOT NULL,
	axes         INTEGER NOT NULL,
	frame_count  INTEGER NOT NULL,
	frames       BLOB NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS server_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	level       TEXT NOT NULL,
	logger_name TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	thread_id   INTEGER NOT NULL DEFAULT 0,
	logged_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS server_logs_logged_at ON server_logs (logged_at);
`

// TrackSummary describes a stored track without its frames.
type TrackSummary struct {
	ID          uuid.UUID
	CreatureID  string
	AnimationID string
	Axes        int
	FrameCount  int
	StoredBytes int64
	UpdatedAt   time.Time
}

// LogRecord is one archived server log line.
type LogRecord struct {
	ID         int64
	Level      string
	LoggerName string
	Message    string
	ThreadID   int64
	LoggedAt   time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db    *sql.DB
	path  string
	codec *frameCodec
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("create schema: %w", err)
	}

	codec, err := newFrameCodec(defaultCompressionLevel)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}

	return &Store{db: db, path: path, codec: codec}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	s.codec.close()
	return s.db.Close()
}

// SaveTrack inserts or replaces a track.
func (s *Store) SaveTrack(ctx context.Context, t *track.Track) error {
	blob, err := s.codec.encode(t.Frames)
	if err != nil {
		return err
	}

	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tracks (id, creature_id, animation_id, axes, frame_count, frames, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			creature_id  = excluded.creature_id,
			animation_id = excluded.animation_id,
			axes         = excluded.axes,
			frame_count  = excluded.frame_count,
			frames       = excluded.frames,
			updated_at   = excluded.updated_at`,
		t.ID.String(), t.CreatureID, t.AnimationID, t.Axes, len(t.Frames), blob, t.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save track %s: %w", t.ID, err)
	}
	return nil
}

// LoadTrack reads the track with the given ID.
func (s *Store) LoadTrack(ctx context.Context, id uuid.UUID) (*track.Track, error) {
	var (
		t       track.Track
		rawID   string
		blob    []byte
		updated int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, creature_id, animation_id, axes, frames, updated_at
		FROM tracks WHERE id = ?`, id.String()).
		Scan(&rawID, &t.CreatureID, &t.AnimationID, &t.Axes, &blob, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load track %s: %w", id, err)
	}

	if t.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("%w: bad id %q", ErrCorrupted, rawID)
	}
	if t.Frames, err = s.codec.decode(blob); err != nil {
		return nil, fmt.Errorf("track %s: %w", id, err)
	}
	t.UpdatedAt = time.Unix(0, updated)
	return &t, nil
}

// ListTracks returns a summary of every stored track, most recently updated
// first.
func (s *Store) ListTracks(ctx context.Context) ([]TrackSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creature_id, animation_id, axes, frame_count, length(frames), updated_at
		FROM tracks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []TrackSummary
	for rows.Next() {
		var (
			sum     TrackSummary
			rawID   string
			updated int64
		)
		if err := rows.Scan(&rawID, &sum.CreatureID, &sum.AnimationID, &sum.Axes, &sum.FrameCount, &sum.StoredBytes, &updated); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if sum.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("%w: bad id %q", ErrCorrupted, rawID)
		}
		sum.UpdatedAt = time.Unix(0, updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteTrack removes a track.
func (s *Store) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete track %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	return nil
}

// AppendLog archives one server log line.
func (s *Store) AppendLog(ctx context.Context, rec LogRecord) error {
	if rec.LoggedAt.IsZero() {
		rec.LoggedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO server_logs (level, logger_name, message, thread_id, logged_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.Level, rec.LoggerName, rec.Message, rec.ThreadID, rec.LoggedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// RecentLogs returns up to limit archived lines, oldest first.
func (s *Store) RecentLogs(ctx context.Context, limit int) ([]LogRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, level, logger_name, message, thread_id, logged_at FROM (
			SELECT * FROM server_logs ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []LogRecord
	for rows.Next() {
		var (
			rec    LogRecord
			logged int64
		)
		if err := rows.Scan(&rec.ID, &rec.Level, &rec.LoggerName, &rec.Message, &rec.ThreadID, &logged); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		rec.LoggedAt = time.Unix(0, logged)
		out = append(out, rec)
	}
	return out, rows.Err()
}
