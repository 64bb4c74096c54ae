package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"todod/internals/schemas"
)

func sessionFixture(id string) *schemas.SessionResponse {
	return &schemas.SessionResponse{
		SessionID: id,
		State: &schemas.SessionState{
			Goal:  "goal",
			Tasks: []schemas.Task{{ID: 1, Title: "a", Status: schemas.TaskStatusPending}},
			Log:   []string{},
		},
		HasPending: true,
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/version" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte("0.1.0\n"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "0.1.0" {
		t.Fatalf("version %q", version)
	}
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req schemas.SessionCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Goal != "build it" || req.Model != "gpt-4o" {
			t.Errorf("unexpected request body %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(sessionFixture("abc"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	resp, err := client.CreateSession(context.Background(), schemas.SessionCreateRequest{Goal: "build it", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if resp.SessionID != "abc" || !resp.HasPending {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestStepSessionPropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(ErrorResponse{
			Status:  "failed",
			Code:    "decision_failed",
			Message: "task 1: oracle call failed",
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.StepSession(context.Background(), "abc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "decision_failed" || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestStepSessionBusy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorResponse{Status: "failed", Code: "session_busy", Message: "busy"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	if _, err := client.StepSession(context.Background(), "abc"); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
}

func TestGetSessionEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessionFixture("a b"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	if _, err := client.GetSession(context.Background(), "a b"); err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if gotPath != "/sessions/a%20b" {
		t.Fatalf("path %q", gotPath)
	}
}

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]schemas.SessionMetadata{
			{SessionID: "a", Goal: "first"},
			{SessionID: "b", Goal: "second"},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	sessions, err := client.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "a" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
}

func TestResponseErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.ListSessions(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("plain-text error body must not produce an APIError")
	}
}
