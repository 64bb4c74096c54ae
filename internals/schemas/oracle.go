package schemas

import (
	z "github.com/Oudwins/zog"
)

// PlannedTask is one entry of the planner's structured response. Entries
// with an empty title are skipped by the engine rather than failing the
// whole plan.
type PlannedTask struct {
	Title       string `json:"title" zog:"title"`
	Description string `json:"description" zog:"description"`
}

// PlanResponse is the schema-constrained shape the oracle must return
// from a plan call.
type PlanResponse struct {
	Tasks []PlannedTask `json:"tasks" zog:"tasks"`
}

var PlanResponseSchema = z.Struct(z.Shape{
	"Tasks": z.Slice(z.Struct(z.Shape{
		"Title":       z.String().Optional().Trim(),
		"Description": z.String().Optional().Trim(),
	})),
})

// DecisionResponse is the schema-constrained shape the oracle must return
// from a decide call. Status must be exactly one of the terminal values;
// anything else fails the step, it is never coerced to a default.
type DecisionResponse struct {
	Result     string     `json:"result" zog:"result"`
	Status     TaskStatus `json:"status" zog:"status"`
	Reflection string     `json:"reflection" zog:"reflection"`
}

var DecisionResponseSchema = z.Struct(z.Shape{
	"Result":     z.String().Optional().Trim(),
	"Status":     z.StringLike[TaskStatus]().Required(z.Message("status is required")).OneOf(TerminalStatuses(), z.Message("status must be done, failed or needs-follow-up")),
	"Reflection": z.String().Optional().Trim(),
})
