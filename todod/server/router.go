package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Get("/version", s.HandlerVersion)
	r.Post("/shutdown", s.HandlerShutdown)
	r.Post("/sessions", s.HandlerCreateSession)
	r.Get("/sessions", s.HandlerListSessions)
	r.Get("/sessions/{id}", s.HandlerGetSession)
	r.Post("/sessions/{id}/step", s.HandlerStepSession)
	r.Post("/sessions/{id}/run", s.HandlerRunSession)
	return r
}
