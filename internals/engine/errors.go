package engine

import "fmt"

// PlanningError means the oracle call failed or produced zero usable
// tasks. No session state is created when planning fails.
type PlanningError struct {
	Goal string
	Err  error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed for goal %q: %v", e.Goal, e.Err)
	}
	return fmt.Sprintf("planning failed for goal %q", e.Goal)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// DecisionError means the oracle call failed or produced an invalid
// decision for a step. The target task stays pending and may be retried
// by invoking the step again.
type DecisionError struct {
	TaskID int
	Reason string
	Err    error
}

func (e *DecisionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decision failed for task %d: %s: %v", e.TaskID, e.Reason, e.Err)
	}
	return fmt.Sprintf("decision failed for task %d: %s", e.TaskID, e.Reason)
}

func (e *DecisionError) Unwrap() error { return e.Err }
