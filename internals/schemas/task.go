package schemas

type TaskStatus string

const (
	TaskStatusPending       TaskStatus = "pending"
	TaskStatusDone          TaskStatus = "done"
	TaskStatusFailed        TaskStatus = "failed"
	TaskStatusNeedsFollowUp TaskStatus = "needs-follow-up"
)

func TerminalStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusDone, TaskStatusFailed, TaskStatusNeedsFollowUp}
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusDone, TaskStatusFailed, TaskStatusNeedsFollowUp:
		return true
	}
	return false
}

// Terminal reports whether a task with this status is no longer eligible
// for execution. needs-follow-up is terminal for the engine even though it
// signals human attention rather than completion.
func (s TaskStatus) Terminal() bool {
	return s.Valid() && s != TaskStatusPending
}

// Task is one planned unit of work. Title and description are fixed at
// planning time; status transitions at most once, from pending to exactly
// one terminal value. Result and reflection are set alongside that single
// transition and stay nil while the task is pending.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Result      *string    `json:"result"`
	Reflection  *string    `json:"reflection"`
}

func NewTask(id int, title string, description string) Task {
	return Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
	}
}
