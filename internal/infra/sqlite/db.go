// Package sqlite provides SQLite-based persistent storage for Mira.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/mira-agent/mira/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/sessions.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "sessions.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id              TEXT PRIMARY KEY,
			started_at      INTEGER NOT NULL,
			ended_at        INTEGER,
			target_fps      INTEGER NOT NULL,
			frames_rendered INTEGER NOT NULL DEFAULT 0,
			frames_dropped  INTEGER NOT NULL DEFAULT 0,
			avg_frame_ms    REAL NOT NULL DEFAULT 0,
			p95_frame_ms    REAL NOT NULL DEFAULT 0,
			judder_score    REAL NOT NULL DEFAULT 0,
			final_lod       INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,

		`CREATE TABLE IF NOT EXISTS frame_stats (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			sampled_at   INTEGER NOT NULL,
			fps          REAL NOT NULL,
			p95_frame_ms REAL NOT NULL,
			judder_score REAL NOT NULL,
			lod          INTEGER NOT NULL,
			queue_depth  INTEGER NOT NULL,
			throttled    BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_session ON frame_stats(session_id, sampled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_sampled ON frame_stats(sampled_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Session Repository ─────────────────────────────────────────────────────

// CreateSession records the start of a pipeline session.
func (d *DB) CreateSession(s domain.Session) error {
	_, err := d.db.Exec(
		`INSERT INTO sessions (id, started_at, target_fps) VALUES (?, ?, ?)`,
		s.ID, s.StartedAt.Unix(), s.TargetFPS,
	)
	return err
}

// FinishSession stores the end-of-run summary for a session.
func (d *DB) FinishSession(s domain.Session) error {
	result, err := d.db.Exec(
		`UPDATE sessions SET
			ended_at=?, target_fps=?, frames_rendered=?, frames_dropped=?,
			avg_frame_ms=?, p95_frame_ms=?, judder_score=?, final_lod=?
		 WHERE id = ?`,
		nullableUnix(s.EndedAt), s.TargetFPS, s.FramesRendered, s.FramesDropped,
		s.AvgFrameMs, s.P95FrameMs, s.JudderScore, int(s.FinalLOD), s.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// GetSession retrieves a single session by id.
func (d *DB) GetSession(id string) (*domain.Session, error) {
	row := d.db.QueryRow(
		`SELECT id, started_at, ended_at, target_fps, frames_rendered, frames_dropped,
			avg_frame_ms, p95_frame_ms, judder_score, final_lod
		 FROM sessions WHERE id = ?`, id,
	)
	s, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// ListSessions returns the most recent sessions, newest first.
func (d *DB) ListSessions(limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		`SELECT id, started_at, ended_at, target_fps, frames_rendered, frames_dropped,
			avg_frame_ms, p95_frame_ms, judder_score, final_lod
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and, via cascade, its samples.
func (d *DB) DeleteSession(id string) error {
	result, err := d.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// ─── Stats Samples ──────────────────────────────────────────────────────────

// InsertSample appends one periodic health snapshot to a session.
func (d *DB) InsertSample(s domain.StatsSample) error {
	_, err := d.db.Exec(
		`INSERT INTO frame_stats (session_id, sampled_at, fps, p95_frame_ms, judder_score, lod, queue_depth, throttled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.At.Unix(), s.FPS, s.P95FrameMs, s.JudderScore,
		int(s.LOD), s.QueueDepth, s.Throttled,
	)
	return err
}

// SamplesForSession returns a session's samples in chronological order.
func (d *DB) SamplesForSession(sessionID string) ([]domain.StatsSample, error) {
	rows, err := d.db.Query(
		`SELECT session_id, sampled_at, fps, p95_frame_ms, judder_score, lod, queue_depth, throttled
		 FROM frame_stats WHERE session_id = ? ORDER BY sampled_at ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.StatsSample
	for rows.Next() {
		var s domain.StatsSample
		var at int64
		var lod int
		if err := rows.Scan(&s.SessionID, &at, &s.FPS, &s.P95FrameMs,
			&s.JudderScore, &lod, &s.QueueDepth, &s.Throttled); err != nil {
			return nil, err
		}
		s.At = time.Unix(at, 0)
		s.LOD = domain.LODLevel(lod)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// PruneSamples deletes samples older than the cutoff. Returns rows removed.
func (d *DB) PruneSamples(before time.Time) (int64, error) {
	result, err := d.db.Exec(`DELETE FROM frame_stats WHERE sampled_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*domain.Session, error) {
	var out domain.Session
	var startedAt int64
	var endedAt sql.NullInt64
	var lod int

	err := s.Scan(&out.ID, &startedAt, &endedAt, &out.TargetFPS,
		&out.FramesRendered, &out.FramesDropped,
		&out.AvgFrameMs, &out.P95FrameMs, &out.JudderScore, &lod)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	out.StartedAt = time.Unix(startedAt, 0)
	if endedAt.Valid {
		out.EndedAt = time.Unix(endedAt.Int64, 0)
	}
	out.FinalLOD = domain.LODLevel(lod)
	return &out, nil
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
