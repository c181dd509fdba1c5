package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sahayak-edu/sahayak/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotImplemented is returned by operations the store intentionally
// does not support yet.
var ErrNotImplemented = errors.New("session deletion not implemented")

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

type Store struct {
	db      *sql.DB
	appName string
}

func New(dbPath, appName string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, appName: appName}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		app_name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (app_name, user_id, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create stores a new session with the given state document.
func (s *Store) Create(userID string, st *model.State) (model.Session, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return model.Session{}, fmt.Errorf("marshal state: %w", err)
	}
	sess := model.Session{
		ID:        uuid.NewString(),
		AppName:   s.appName,
		UserID:    userID,
		State:     st,
		CreatedAt: time.Now().UTC(),
	}
	sess.UpdatedAt = sess.CreatedAt
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, app_name, user_id, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.AppName, sess.UserID, string(data), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get returns a session by ID, or nil if it does not exist.
func (s *Store) Get(userID, sessionID string) (*model.Session, error) {
	var sess model.Session
	var raw string
	err := s.db.QueryRow(
		`SELECT id, app_name, user_id, state, created_at, updated_at
		 FROM sessions WHERE id = ? AND app_name = ? AND user_id = ?`,
		sessionID, s.appName, userID,
	).Scan(&sess.ID, &sess.AppName, &sess.UserID, &raw, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.State = &model.State{}
	if err := json.Unmarshal([]byte(raw), sess.State); err != nil {
		return nil, fmt.Errorf("decode state for session %s: %w", sess.ID, err)
	}
	return &sess, nil
}

// List returns all sessions for a user, most recent first.
func (s *Store) List(userID string) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT id, app_name, user_id, state, created_at, updated_at
		 FROM sessions WHERE app_name = ? AND user_id = ? ORDER BY created_at DESC`,
		s.appName, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var raw string
		if err := rows.Scan(&sess.ID, &sess.AppName, &sess.UserID, &raw, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sess.State = &model.State{}
		if err := json.Unmarshal([]byte(raw), sess.State); err != nil {
			return nil, fmt.Errorf("decode state for session %s: %w", sess.ID, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SaveState writes the whole state document back for a session.
// Last writer wins.
func (s *Store) SaveState(userID, sessionID string, st *model.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET state = ?, updated_at = ? WHERE id = ? AND app_name = ? AND user_id = ?`,
		string(data), time.Now().UTC(), sessionID, s.appName, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete is not supported; kept as an explicit endpoint contract.
func (s *Store) Delete(userID, sessionID string) error {
	return ErrNotImplemented
}

// Resolve finds the session to use for a request: the explicitly
// requested one if it exists, else the user's most recent session, else
// a fresh session with the default state. Fetch and list failures are
// logged and fallen through; only a failed create is fatal.
func (s *Store) Resolve(userID, sessionID string) (model.Session, error) {
	if sessionID != "" {
		sess, err := s.Get(userID, sessionID)
		if err != nil {
			slog.Warn("fetch session failed, falling back", "session_id", sessionID, "error", err)
		} else if sess != nil {
			return *sess, nil
		} else {
			slog.Warn("session not found, falling back", "session_id", sessionID, "user_id", userID)
		}
	}

	sessions, err := s.List(userID)
	if err != nil {
		slog.Warn("list sessions failed, creating new session", "user_id", userID, "error", err)
	} else if len(sessions) > 0 {
		return sessions[0], nil
	}

	sess, err := s.Create(userID, model.NewState())
	if err != nil {
		return model.Session{}, fmt.Errorf("create session for user %s: %w", userID, err)
	}
	slog.Info("created new session", "user_id", userID, "session_id", sess.ID)
	return sess, nil
}

// Health checks database connectivity with a simple query.
func (s *Store) Health() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return fmt.Errorf("health query: %w", err)
	}
	return nil
}

// SessionCount returns the total number of stored sessions.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}
