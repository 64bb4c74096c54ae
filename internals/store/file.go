package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"todod/internals/schemas"
)

// FileStore persists one JSON file per session under a data directory.
// Saves go through a temp file in the same directory followed by a
// rename, so a crash mid-write never exposes a partial record.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

func (s *FileStore) Save(ctx context.Context, sessionID string, state *schemas.SessionState) error {
	if err := ctx.Err(); err != nil {
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}

	now := s.now().UTC()
	record := schemas.SessionRecord{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
		State:     state,
	}
	if existing, err := s.readRecord(sessionID); err == nil {
		record.CreatedAt = existing.CreatedAt
	}

	data, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, sessionID+".*.tmp")
	if err != nil {
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}
	if err := os.Rename(tmpPath, s.path(sessionID)); err != nil {
		os.Remove(tmpPath)
		return &IOError{SessionID: sessionID, Op: "save", Err: err}
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, sessionID string) (*schemas.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, &IOError{SessionID: sessionID, Op: "load", Err: err}
	}

	record, err := s.readRecord(sessionID)
	if err != nil {
		return nil, err
	}
	return record.State, nil
}

func (s *FileStore) List(ctx context.Context) ([]schemas.SessionMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, &IOError{Op: "list", Err: err}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &IOError{Op: "list", Err: err}
	}

	sessions := make([]schemas.SessionMetadata, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sessionID := strings.TrimSuffix(name, ".json")
		record, err := s.readRecord(sessionID)
		if err != nil {
			s.logger.Warn("skipping unreadable session record",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sessions = append(sessions, schemas.SessionMetadata{
			SessionID:  record.SessionID,
			Goal:       record.State.Goal,
			TaskCounts: record.State.StatusCounts(),
			UpdatedAt:  record.UpdatedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (s *FileStore) readRecord(sessionID string) (*schemas.SessionRecord, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, &IOError{SessionID: sessionID, Op: "load", Err: err}
	}

	record := &schemas.SessionRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, &CorruptSessionError{SessionID: sessionID, Err: err}
	}
	if record.State == nil {
		return nil, &CorruptSessionError{SessionID: sessionID, Err: fmt.Errorf("record has no state")}
	}
	if err := record.State.Validate(); err != nil {
		return nil, &CorruptSessionError{SessionID: sessionID, Err: err}
	}
	return record, nil
}
