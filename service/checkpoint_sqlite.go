package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/legalops/docverify/backend/agent"
	"github.com/legalops/docverify/backend/config"
	"github.com/legalops/docverify/backend/model"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	tenant     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_tenant ON sessions(tenant);
`

// SQLiteStore is a durable checkpoint store. Session state is stored as a
// JSON document keyed by session ID, with tenant and status denormalized
// for listing.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the checkpoint database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", "data", "sessions.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode for concurrent readers during pipeline writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	slog.Info("checkpoint store initialized", "backend", "sqlite", "path", dbPath)
	return &SQLiteStore{db: db, path: dbPath}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state *model.VerificationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", state.SessionID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, tenant, status, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			tenant = excluded.tenant,
			status = excluded.status,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		state.SessionID, state.Tenant, state.Status, string(data), state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*model.VerificationState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, agent.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var state model.VerificationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *SQLiteStore) ListByTenant(ctx context.Context, tenant string) ([]*model.VerificationState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM sessions WHERE tenant = ? ORDER BY created_at DESC`, tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions for tenant %s: %w", tenant, err)
	}
	defer rows.Close()

	var result []*model.VerificationState
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var state model.VerificationState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			continue
		}
		result = append(result, &state)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// NewStore builds the checkpoint store selected by config
func NewStore(cfg *config.StoreConfig) (CheckpointStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "", "memory":
		return NewMemoryStore(cfg), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
