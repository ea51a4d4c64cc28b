// Package store persists completed capture sessions in a local SQLite
// database so history survives restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	meeting_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	dir         TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	ended_at    TIMESTAMP NOT NULL,
	stop_reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
`

// Session is one completed capture session.
type Session struct {
	SessionID  string    `json:"sessionId"`
	MeetingID  string    `json:"meetingId"`
	Title      string    `json:"title"`
	Dir        string    `json:"dir"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	StopReason string    `json:"stopReason"`
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	// SQLite allows a single writer; the coordinator's OnStop hook is
	// the only writer so one connection is enough.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save records a completed session. Saving the same session twice
// overwrites the earlier row.
func (s *Store) Save(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(session_id, meeting_id, title, dir, started_at, ended_at, stop_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.MeetingID, sess.Title, sess.Dir,
		sess.StartedAt, sess.EndedAt, sess.StopReason,
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.SessionID, err)
	}
	return nil
}

// ListRecent returns up to limit sessions, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, meeting_id, title, dir, started_at, ended_at, stop_reason
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(
			&sess.SessionID, &sess.MeetingID, &sess.Title, &sess.Dir,
			&sess.StartedAt, &sess.EndedAt, &sess.StopReason,
		); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
