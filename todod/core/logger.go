package core

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"todod/internals/assert"
	"todod/internals/conf"
)

// InitLogger writes to stdout and a log file under the data dir. The
// stdout handler is tint when attached to a terminal, JSON otherwise.
func InitLogger(config *conf.Config) (*slog.Logger, *os.File) {
	logPath := filepath.Join(config.Server.DataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.AssertNil(err, "[CORE] Failed to initialize log directory")
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.AssertNil(err, "[CORE] Failed to open log file")

	logWriter := io.MultiWriter(os.Stdout, logFile)
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = tint.NewHandler(logWriter, &tint.Options{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	} else {
		handler = slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger, logFile
}
