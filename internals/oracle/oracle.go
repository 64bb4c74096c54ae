package oracle

import (
	"context"

	"todod/internals/schemas"
)

// Client is the boundary to the external decision-making capability. Both
// calls ask the oracle for a strictly structured response; implementations
// must return an error for anything that does not parse as the expected
// JSON shape. Semantic validation of the parsed response (enum membership,
// empty titles) belongs to the engine.
type Client interface {
	// Plan breaks a goal down into an ordered list of task drafts.
	Plan(ctx context.Context, goal string) (*schemas.PlanResponse, error)

	// Decide executes a single task against the goal and reports the
	// outcome, a terminal status and a short reflection.
	Decide(ctx context.Context, goal string, task schemas.Task) (*schemas.DecisionResponse, error)
}
