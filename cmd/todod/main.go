package main

import (
	"log"
	"log/slog"

	"todod/todod/server"
)

func main() {
	srv := server.New()
	srv.App.Logger.Info("todod starting",
		slog.String("version", srv.App.Config.Version),
		slog.String("addr", srv.App.Env.LISTEN_ADDR),
	)
	if err := srv.Start(); err != nil {
		log.Fatal("[todod] Failed to start server: ", err)
	}
}
