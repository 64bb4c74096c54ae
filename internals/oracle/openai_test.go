package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todod/internals/schemas"
	"todod/internals/testutil"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatCompletionHandler(t *testing.T, requests *[]chatRequest, content func() string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		*requests = append(*requests, req)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content(),
					},
				},
			},
		})
	}
}

func TestPlanParsesTaskList(t *testing.T) {
	var requests []chatRequest
	srv := httptest.NewServer(chatCompletionHandler(t, &requests, func() string {
		return `{"tasks": [{"title": "first", "description": "do it"}, {"title": "second", "description": ""}]}`
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("test-key", srv.URL, testutil.Logger(), WithModel("test-model"))
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	plan, err := client.Plan(context.Background(), "build a thing")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(plan.Tasks))
	}
	if plan.Tasks[0].Title != "first" || plan.Tasks[0].Description != "do it" {
		t.Fatalf("unexpected task %+v", plan.Tasks[0])
	}

	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.Model != "test-model" {
		t.Fatalf("unexpected model %q", req.Model)
	}
	if req.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %q", req.ResponseFormat.Type)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "build a thing") {
		t.Fatalf("goal missing from user prompt: %q", req.Messages[1].Content)
	}
}

func TestDecideParsesDecision(t *testing.T) {
	var requests []chatRequest
	srv := httptest.NewServer(chatCompletionHandler(t, &requests, func() string {
		return `{"result": "wrote the migration", "status": "done", "reflection": "smooth"}`
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("test-key", srv.URL, testutil.Logger())
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	task := schemas.NewTask(3, "add migration", "create the sessions table")
	decision, err := client.Decide(context.Background(), "ship the backend", task)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Status != schemas.TaskStatusDone {
		t.Fatalf("unexpected status %s", decision.Status)
	}
	if decision.Result != "wrote the migration" || decision.Reflection != "smooth" {
		t.Fatalf("unexpected decision %+v", decision)
	}

	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	prompt := requests[0].Messages[1].Content
	for _, fragment := range []string{"ship the backend", "add migration", "create the sessions table"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("user prompt missing %q: %s", fragment, prompt)
		}
	}
}

func TestPlanRejectsNonJSONContent(t *testing.T) {
	var requests []chatRequest
	srv := httptest.NewServer(chatCompletionHandler(t, &requests, func() string {
		return "Sure! Here is your plan: 1. do things"
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("test-key", srv.URL, testutil.Logger())
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	if _, err := client.Plan(context.Background(), "goal"); err == nil {
		t.Fatalf("expected error for non-JSON content")
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"tasks\": [{\"title\": \"t\", \"description\": \"\"}]}"}}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("test-key", srv.URL, testutil.Logger(), WithMaxRetries(3))
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	plan, err := client.Plan(context.Background(), "goal")
	if err != nil {
		t.Fatalf("Plan after retry: %v", err)
	}
	if len(plan.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(plan.Tasks))
	}
	if calls < 2 {
		t.Fatalf("expected a retry, got %d calls", calls)
	}
}

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIClient("  ", "", testutil.Logger()); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
