package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"todod/internals/schemas"
)

func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sessions.db")
}

// ScriptedOracle answers plan and decide calls from in-test functions, so
// engine behavior can be driven without a real oracle.
type ScriptedOracle struct {
	PlanFunc   func(ctx context.Context, goal string) (*schemas.PlanResponse, error)
	DecideFunc func(ctx context.Context, goal string, task schemas.Task) (*schemas.DecisionResponse, error)
}

func (o *ScriptedOracle) Plan(ctx context.Context, goal string) (*schemas.PlanResponse, error) {
	return o.PlanFunc(ctx, goal)
}

func (o *ScriptedOracle) Decide(ctx context.Context, goal string, task schemas.Task) (*schemas.DecisionResponse, error) {
	return o.DecideFunc(ctx, goal, task)
}

// DecideSequence returns a DecideFunc that replays the given decisions in
// order, one per call.
func DecideSequence(t *testing.T, decisions ...schemas.DecisionResponse) func(context.Context, string, schemas.Task) (*schemas.DecisionResponse, error) {
	t.Helper()
	index := 0
	return func(ctx context.Context, goal string, task schemas.Task) (*schemas.DecisionResponse, error) {
		if index >= len(decisions) {
			t.Fatalf("unexpected decide call %d for task %d", index+1, task.ID)
		}
		decision := decisions[index]
		index++
		return &decision, nil
	}
}
