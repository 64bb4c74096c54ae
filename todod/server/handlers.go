package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	z "github.com/Oudwins/zog"

	"todod/internals/engine"
	"todod/internals/schemas"
	"todod/internals/sessionids"
	"todod/internals/store"
)

func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.App.Config.Version))
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("shutting down"))
	s.Shutdown()
}

func (s *Server) HandlerCreateSession(w http.ResponseWriter, r *http.Request) {
	var request schemas.SessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}

	if issues := schemas.SessionCreateSchema.Validate(&request); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return
	}

	eng, err := s.App.EngineFor(request.Model)
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.App.StepTimeout)
	defer cancel()

	state, err := eng.PlanSession(ctx, request.Goal)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	sessionID, err := sessionids.New()
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, "Failed to generate session id", nil), Render.Status(http.StatusInternalServerError))
		return
	}

	if err := s.App.Store.Save(r.Context(), sessionID, state); err != nil {
		s.renderError(w, r, err)
		return
	}

	RenderJSON(w, r, &schemas.SessionResponse{
		SessionID:  sessionID,
		State:      state,
		HasPending: state.HasPending(),
	}, Render.Status(http.StatusCreated))
}

func (s *Server) HandlerListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.App.Store.List(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	RenderJSON(w, r, sessions)
}

func (s *Server) HandlerGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionIDParam(w, r)
	if !ok {
		return
	}

	state, err := s.App.Store.Load(r.Context(), sessionID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	RenderJSON(w, r, &schemas.SessionResponse{
		SessionID:  sessionID,
		State:      state,
		HasPending: state.HasPending(),
	})
}

func (s *Server) HandlerStepSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionIDParam(w, r)
	if !ok {
		return
	}

	release, acquired := s.locks.tryAcquire(sessionID)
	if !acquired {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeBusy, "A step for this session is already in flight", nil), Render.Status(http.StatusConflict))
		return
	}
	defer release()

	state, err := s.App.Store.Load(r.Context(), sessionID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.App.StepTimeout)
	defer cancel()

	hasPending, err := s.App.Engine.RunExecutionStep(ctx, state)
	if err != nil {
		// The task stays pending and nothing was persisted; the step can
		// be retried by calling this endpoint again.
		s.renderError(w, r, err)
		return
	}

	if err := s.App.Store.Save(r.Context(), sessionID, state); err != nil {
		s.renderError(w, r, err)
		return
	}

	RenderJSON(w, r, &schemas.SessionResponse{
		SessionID:  sessionID,
		State:      state,
		HasPending: hasPending,
	})
}

func (s *Server) HandlerRunSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionIDParam(w, r)
	if !ok {
		return
	}

	release, acquired := s.locks.tryAcquire(sessionID)
	if !acquired {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeBusy, "A step for this session is already in flight", nil), Render.Status(http.StatusConflict))
		return
	}
	defer release()

	state, err := s.App.Store.Load(r.Context(), sessionID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	budget := time.Duration(len(state.Tasks)+1) * s.App.StepTimeout
	ctx, cancel := context.WithTimeout(r.Context(), budget)
	defer cancel()

	persist := func(ctx context.Context) error {
		return s.App.Store.Save(ctx, sessionID, state)
	}
	if err := s.App.Engine.RunExecutionLoop(ctx, state, persist); err != nil {
		s.renderError(w, r, err)
		return
	}

	RenderJSON(w, r, &schemas.SessionResponse{
		SessionID:  sessionID,
		State:      state,
		HasPending: state.HasPending(),
	})
}

func (s *Server) sessionIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "id")
	if !sessionids.Valid(sessionID) {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "invalid session id", nil), Render.Status(http.StatusBadRequest))
		return "", false
	}
	return sessionID, true
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var planningErr *engine.PlanningError
	var decisionErr *engine.DecisionError
	var corruptErr *store.CorruptSessionError

	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeNotFound, "Session not found", nil), Render.Status(http.StatusNotFound))
	case errors.As(err, &corruptErr):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeCorrupt, corruptErr.Error(), nil), Render.Status(http.StatusInternalServerError))
	case errors.As(err, &planningErr):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodePlanningFailed, planningErr.Error(), nil), Render.Status(http.StatusBadGateway))
	case errors.As(err, &decisionErr):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeDecisionFailed, decisionErr.Error(), nil), Render.Status(http.StatusBadGateway))
	default:
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
	}
}
