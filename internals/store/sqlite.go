package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"todod/internals/schemas"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps one row per session. The session state itself stays a
// JSON blob in the row, so the logical record shape is identical to the
// file backend and records can move between the two.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}

	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, sessionID string, state *schemas.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (session_id, created_at, updated_at, state_json)
VALUES (?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	updated_at = excluded.updated_at,
	state_json = excluded.state_json
`, sessionID, now, now, string(data))
	if err != nil {
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*schemas.SessionState, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT state_json FROM sessions WHERE session_id = ?
`, sessionID)

	var stateJSON string
	if err := row.Scan(&stateJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, &IOError{SessionID: sessionID, Op: "load", Err: err}
	}

	return decodeState(sessionID, stateJSON)
}

func (s *SQLiteStore) List(ctx context.Context) ([]schemas.SessionMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, updated_at, state_json FROM sessions
`)
	if err != nil {
		return nil, &IOError{Op: "list", Err: err}
	}
	defer rows.Close()

	var sessions []schemas.SessionMetadata
	for rows.Next() {
		var sessionID, updatedAt, stateJSON string
		if err := rows.Scan(&sessionID, &updatedAt, &stateJSON); err != nil {
			return nil, &IOError{Op: "list", Err: err}
		}

		state, err := decodeState(sessionID, stateJSON)
		if err != nil {
			s.logger.Warn("skipping unreadable session row",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			continue
		}
		updated, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			s.logger.Warn("skipping session row with bad timestamp",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sessions = append(sessions, schemas.SessionMetadata{
			SessionID:  sessionID,
			Goal:       state.Goal,
			TaskCounts: state.StatusCounts(),
			UpdatedAt:  updated,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "list", Err: err}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func decodeState(sessionID string, stateJSON string) (*schemas.SessionState, error) {
	state := &schemas.SessionState{}
	if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
		return nil, &CorruptSessionError{SessionID: sessionID, Err: err}
	}
	if err := state.Validate(); err != nil {
		return nil, &CorruptSessionError{SessionID: sessionID, Err: err}
	}
	return state, nil
}
