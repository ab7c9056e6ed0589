//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"neuromesh/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS learning_sessions (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_learning_sessions_agent
			ON learning_sessions (agent_id, completed_at DESC);
	`)
	return err
}

func (s *SQLiteStore) SaveSession(ctx context.Context, session model.LearningSession) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSession(session)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO learning_sessions (id, agent_id, completed_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			completed_at = excluded.completed_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, session.ID, session.AgentID, session.CompletedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		session.SchemaVersion, session.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (model.LearningSession, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.LearningSession{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM learning_sessions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LearningSession{}, false, nil
		}
		return model.LearningSession{}, false, err
	}

	session, err := DecodeSession(payload)
	if err != nil {
		return model.LearningSession{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, true, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, agentID string, limit int) ([]model.LearningSession, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT payload FROM learning_sessions`
	args := []any{}
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY completed_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LearningSession
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		session, err := DecodeSession(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM learning_sessions`)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}
