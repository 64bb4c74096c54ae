package schemas

import "testing"

func TestDecisionResponseSchemaAcceptsTerminalStatuses(t *testing.T) {
	for _, status := range TerminalStatuses() {
		response := DecisionResponse{Result: "  did it  ", Status: status, Reflection: " fine "}
		if issues := DecisionResponseSchema.Validate(&response); len(issues) > 0 {
			t.Fatalf("%s: expected no issues, got %v", status, issues)
		}
		if response.Result != "did it" {
			t.Fatalf("expected trimmed result, got %q", response.Result)
		}
	}
}

func TestDecisionResponseSchemaRejectsUnknownStatus(t *testing.T) {
	response := DecisionResponse{Result: "r", Status: "cancelled", Reflection: "x"}
	if issues := DecisionResponseSchema.Validate(&response); len(issues) == 0 {
		t.Fatalf("expected issues for unknown status")
	}
}

func TestDecisionResponseSchemaRejectsMissingStatus(t *testing.T) {
	response := DecisionResponse{Result: "r"}
	if issues := DecisionResponseSchema.Validate(&response); len(issues) == 0 {
		t.Fatalf("expected issues for missing status")
	}
}

func TestDecisionResponseSchemaRejectsPendingStatus(t *testing.T) {
	// pending is a valid task status but never a valid decision.
	response := DecisionResponse{Result: "r", Status: TaskStatusPending}
	if issues := DecisionResponseSchema.Validate(&response); len(issues) == 0 {
		t.Fatalf("expected issues for pending status")
	}
}

func TestPlanResponseSchemaTrimsEntries(t *testing.T) {
	response := PlanResponse{Tasks: []PlannedTask{
		{Title: "  Design schema  ", Description: "  tables  "},
		{Title: "   "},
	}}
	if issues := PlanResponseSchema.Validate(&response); len(issues) > 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if response.Tasks[0].Title != "Design schema" || response.Tasks[0].Description != "tables" {
		t.Fatalf("expected trimmed entry, got %+v", response.Tasks[0])
	}
	if response.Tasks[1].Title != "" {
		t.Fatalf("expected whitespace-only title to trim to empty, got %q", response.Tasks[1].Title)
	}
}
