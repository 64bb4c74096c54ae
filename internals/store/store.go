package store

import (
	"context"
	"errors"
	"fmt"

	"todod/internals/schemas"
)

// ErrSessionNotFound is returned by Load when no record exists for the
// given session id.
var ErrSessionNotFound = errors.New("session not found")

// CorruptSessionError means a stored record exists but does not parse or
// fails session state validation.
type CorruptSessionError struct {
	SessionID string
	Err       error
}

func (e *CorruptSessionError) Error() string {
	return fmt.Sprintf("session %s is corrupt: %v", e.SessionID, e.Err)
}

func (e *CorruptSessionError) Unwrap() error { return e.Err }

// IOError wraps an underlying read/write failure (disk full, permission
// denied, database error). After a failed Save the in-memory state may be
// ahead of durable state; callers must not assume the write landed.
type IOError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("session storage %s failed for %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store is durable read/modify/write of session state keyed by session
// id. Save is a full overwrite of the record and must never leave a
// partially written record visible to Load. List isolates per-record
// corruption: unreadable records are skipped, not propagated.
type Store interface {
	Save(ctx context.Context, sessionID string, state *schemas.SessionState) error
	Load(ctx context.Context, sessionID string) (*schemas.SessionState, error)
	List(ctx context.Context) ([]schemas.SessionMetadata, error)
}
