package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"

	"todod/internals/timeouts"
	"todod/sdk"
	"todod/todod/core"
)

type Server struct {
	App        *core.App
	locks      *sessionLocks
	httpServer *http.Server
}

func New() *Server {
	return &Server{
		App:   core.New(),
		locks: newSessionLocks(),
	}
}

// SafeStart starts the daemon in the background unless one is already
// answering on the configured port.
func (s *Server) SafeStart() error {
	if sdk.IsRunning(s.App.Env.BASE_URL) {
		return nil
	}

	go func() {
		s.App.Logger.Info("starting server")
		if err := s.Start(); err != nil {
			log.Fatal("[todod] Failed to start server: " + err.Error())
		}
	}()

	if sdk.WaitForStart(s.App.Env.BASE_URL, s.App.Logger) {
		return nil
	}

	return errors.New("couldn't start server")
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.App.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler: s.Router(),
	}
	s.httpServer = server
	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.ShutdownGrace)
		defer cancel()
		if s.httpServer == nil {
			s.App.Logger.Error("shutdown failed", "error", errors.New("server not initialized"))
			return
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.App.Logger.Error("shutdown failed", "error", err)
		}
		s.App.Close()
	}()
}
