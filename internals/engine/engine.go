package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Oudwins/zog"

	"todod/internals/oracle"
	"todod/internals/schemas"
)

const resultLogLimit = 120

// Engine turns a goal into a task list and advances those tasks one at a
// time. It is purely parametric: session state is passed in and out and
// the engine holds no per-session identity, so callers own persistence
// and per-session serialization.
type Engine struct {
	oracle oracle.Client
	logger *slog.Logger
}

func New(client oracle.Client, logger *slog.Logger) *Engine {
	return &Engine{oracle: client, logger: logger}
}

// PlanSession asks the oracle to break the goal into tasks and builds the
// initial session state. Plan entries without a title are skipped; the
// operation fails with a PlanningError only when the call itself fails or
// no usable entries remain.
func (e *Engine) PlanSession(ctx context.Context, goal string) (*schemas.SessionState, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, &PlanningError{Goal: goal, Err: fmt.Errorf("goal must not be empty")}
	}

	response, err := e.oracle.Plan(ctx, goal)
	if err != nil {
		return nil, &PlanningError{Goal: goal, Err: err}
	}
	if issues := schemas.PlanResponseSchema.Validate(response); len(issues) > 0 {
		return nil, &PlanningError{Goal: goal, Err: fmt.Errorf("plan response failed validation: %s", zog.Issues.FlattenAndCollect(issues))}
	}

	tasks := make([]schemas.Task, 0, len(response.Tasks))
	skipped := 0
	for _, entry := range response.Tasks {
		if entry.Title == "" {
			skipped++
			continue
		}
		tasks = append(tasks, schemas.NewTask(len(tasks)+1, entry.Title, entry.Description))
	}
	if len(tasks) == 0 {
		return nil, &PlanningError{Goal: goal, Err: fmt.Errorf("plan produced zero valid tasks")}
	}

	state, err := schemas.NewSessionState(goal, tasks)
	if err != nil {
		return nil, &PlanningError{Goal: goal, Err: err}
	}
	state.AppendLog(fmt.Sprintf("planned %d tasks for goal: %s", len(tasks), goal))

	e.logger.Info("planned session",
		slog.Int("tasks", len(tasks)),
		slog.Int("skipped_entries", skipped),
	)
	return state, nil
}

// RunExecutionStep executes the first pending task, if any. It mutates at
// most one task and appends exactly one log entry on success, nothing on
// failure. The returned bool reports whether pending tasks remain; a state
// with no pending tasks is a no-op, not an error.
func (e *Engine) RunExecutionStep(ctx context.Context, state *schemas.SessionState) (bool, error) {
	task := state.NextPending()
	if task == nil {
		return false, nil
	}

	decision, err := e.oracle.Decide(ctx, state.Goal, *task)
	if err != nil {
		return true, &DecisionError{TaskID: task.ID, Reason: "oracle call failed", Err: err}
	}
	if issues := schemas.DecisionResponseSchema.Validate(decision); len(issues) > 0 {
		return true, &DecisionError{
			TaskID: task.ID,
			Reason: fmt.Sprintf("invalid decision: %s", zog.Issues.FlattenAndCollect(issues)),
		}
	}

	oldStatus := task.Status
	result := decision.Result
	reflection := decision.Reflection
	task.Result = &result
	task.Status = decision.Status
	task.Reflection = &reflection

	state.AppendLog(fmt.Sprintf("task %d: %s -> %s: %s", task.ID, oldStatus, task.Status, truncate(result, resultLogLimit)))

	e.logger.Info("executed task",
		slog.Int("task_id", task.ID),
		slog.String("status", string(task.Status)),
	)
	return state.HasPending(), nil
}

// RunExecutionLoop steps until no pending task remains, invoking persist
// after every consumed task. A DecisionError aborts the loop; everything
// completed before it has already been persisted, so only the remaining
// plan is lost. The loop is bounded by the task count at entry.
func (e *Engine) RunExecutionLoop(ctx context.Context, state *schemas.SessionState, persist func(context.Context) error) error {
	for range state.Tasks {
		if !state.HasPending() {
			break
		}
		if _, err := e.RunExecutionStep(ctx, state); err != nil {
			return err
		}
		if persist != nil {
			if err := persist(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
