package schemas

import (
	"fmt"
	"time"

	z "github.com/Oudwins/zog"
)

// SessionState is the full planning + execution state for one goal. The
// task list is fixed after planning and the log is append-only.
type SessionState struct {
	Goal  string   `json:"goal"`
	Tasks []Task   `json:"tasks"`
	Log   []string `json:"log"`
}

func NewSessionState(goal string, tasks []Task) (*SessionState, error) {
	state := &SessionState{Goal: goal, Tasks: tasks, Log: []string{}}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// Validate checks the structural invariants the store relies on when
// re-reading persisted state: non-empty goal, non-empty titles, strictly
// ascending unique task ids and known status values.
func (s *SessionState) Validate() error {
	if s.Goal == "" {
		return fmt.Errorf("session goal must not be empty")
	}
	lastID := 0
	for i := range s.Tasks {
		task := &s.Tasks[i]
		if task.Title == "" {
			return fmt.Errorf("task %d: title must not be empty", task.ID)
		}
		if task.ID <= lastID {
			return fmt.Errorf("task %d: ids must be unique and ascending", task.ID)
		}
		if !task.Status.Valid() {
			return fmt.Errorf("task %d: unknown status %q", task.ID, task.Status)
		}
		lastID = task.ID
	}
	return nil
}

// AppendLog records one timestamped event. The log never shrinks or
// reorders.
func (s *SessionState) AppendLog(message string) {
	entry := time.Now().UTC().Format(time.RFC3339) + " " + message
	s.Log = append(s.Log, entry)
}

// HasPending reports whether any task is still eligible for execution.
func (s *SessionState) HasPending() bool {
	for i := range s.Tasks {
		if s.Tasks[i].Status == TaskStatusPending {
			return true
		}
	}
	return false
}

// NextPending returns the first pending task in id order, or nil.
func (s *SessionState) NextPending() *Task {
	for i := range s.Tasks {
		if s.Tasks[i].Status == TaskStatusPending {
			return &s.Tasks[i]
		}
	}
	return nil
}

// StatusCounts tallies tasks per status, for session listings.
func (s *SessionState) StatusCounts() map[TaskStatus]int {
	counts := make(map[TaskStatus]int, 4)
	for i := range s.Tasks {
		counts[s.Tasks[i].Status]++
	}
	return counts
}

// SessionRecord is the persisted shape of one session. UpdatedAt is
// refreshed on every save.
type SessionRecord struct {
	SessionID string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	State     *SessionState `json:"state"`
}

// SessionMetadata is the lightweight listing shape returned by the store.
type SessionMetadata struct {
	SessionID  string             `json:"session_id"`
	Goal       string             `json:"goal"`
	TaskCounts map[TaskStatus]int `json:"task_counts"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type SessionCreateRequest struct {
	Goal  string `json:"goal" zog:"goal"`
	Model string `json:"model" zog:"model"`
}

var SessionCreateSchema = z.Struct(z.Shape{
	"Goal":  z.String().Required(z.Message("goal is required")).Trim().Min(1),
	"Model": z.String().Optional().Trim(),
})

// SessionResponse is what the daemon returns for create/get/step/run.
type SessionResponse struct {
	SessionID  string        `json:"session_id"`
	State      *SessionState `json:"state"`
	HasPending bool          `json:"has_pending"`
}
