package schemas

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTaskStatusTerminal(t *testing.T) {
	if TaskStatusPending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	for _, status := range TerminalStatuses() {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	if TaskStatus("cancelled").Terminal() {
		t.Fatalf("unknown status must not be terminal")
	}
}

func TestNewSessionStateRejectsEmptyGoal(t *testing.T) {
	if _, err := NewSessionState("", nil); err == nil {
		t.Fatalf("expected error for empty goal")
	}
}

func TestNewSessionStateAllowsEmptyTaskList(t *testing.T) {
	state, err := NewSessionState("some goal", nil)
	if err != nil {
		t.Fatalf("NewSessionState: %v", err)
	}
	if state.HasPending() {
		t.Fatalf("degenerate session must not report pending tasks")
	}
	if state.NextPending() != nil {
		t.Fatalf("degenerate session must not select a task")
	}
}

func TestValidateRejectsBadTasks(t *testing.T) {
	cases := []struct {
		name  string
		tasks []Task
	}{
		{"empty title", []Task{{ID: 1, Title: "", Status: TaskStatusPending}}},
		{"duplicate ids", []Task{
			{ID: 1, Title: "a", Status: TaskStatusPending},
			{ID: 1, Title: "b", Status: TaskStatusPending},
		}},
		{"descending ids", []Task{
			{ID: 2, Title: "a", Status: TaskStatusPending},
			{ID: 1, Title: "b", Status: TaskStatusPending},
		}},
		{"unknown status", []Task{{ID: 1, Title: "a", Status: "cancelled"}}},
	}

	for _, tc := range cases {
		state := &SessionState{Goal: "goal", Tasks: tc.tasks}
		if err := state.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestNextPendingSelectsFirstInIDOrder(t *testing.T) {
	state := &SessionState{
		Goal: "goal",
		Tasks: []Task{
			{ID: 1, Title: "a", Status: TaskStatusDone},
			{ID: 2, Title: "b", Status: TaskStatusPending},
			{ID: 3, Title: "c", Status: TaskStatusPending},
		},
	}
	task := state.NextPending()
	if task == nil || task.ID != 2 {
		t.Fatalf("expected task 2, got %+v", task)
	}
}

func TestStatusCounts(t *testing.T) {
	state := &SessionState{
		Goal: "goal",
		Tasks: []Task{
			{ID: 1, Title: "a", Status: TaskStatusDone},
			{ID: 2, Title: "b", Status: TaskStatusDone},
			{ID: 3, Title: "c", Status: TaskStatusPending},
		},
	}
	counts := state.StatusCounts()
	if counts[TaskStatusDone] != 2 || counts[TaskStatusPending] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestSessionStateJSONRoundTrip(t *testing.T) {
	result := "schema drafted"
	reflection := "straightforward"
	state := &SessionState{
		Goal: "Build a login page",
		Tasks: []Task{
			{ID: 1, Title: "Design schema", Description: "tables", Status: TaskStatusDone, Result: &result, Reflection: &reflection},
			{ID: 2, Title: "Implement endpoint", Status: TaskStatusPending},
		},
		Log: []string{"planned 2 tasks"},
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded := &SessionState{}
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(state, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", state, decoded)
	}

	// Pending tasks keep explicit nulls for result and reflection.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	tasks := raw["tasks"].([]any)
	second := tasks[1].(map[string]any)
	if value, exists := second["result"]; !exists || value != nil {
		t.Fatalf("expected null result for pending task, got %v", value)
	}
}

func TestSessionCreateSchema(t *testing.T) {
	request := SessionCreateRequest{Goal: "  build it  ", Model: "  gpt-4o  "}
	if issues := SessionCreateSchema.Validate(&request); len(issues) > 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if request.Goal != "build it" {
		t.Fatalf("expected trimmed goal, got %q", request.Goal)
	}
	if request.Model != "gpt-4o" {
		t.Fatalf("expected trimmed model, got %q", request.Model)
	}

	request = SessionCreateRequest{}
	if issues := SessionCreateSchema.Validate(&request); len(issues) == 0 {
		t.Fatalf("expected validation issues for missing goal")
	}
}
