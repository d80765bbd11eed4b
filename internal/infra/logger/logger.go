package logger

import (
	"io"
	"log/slog"
	"os"
)

const service = "apu-builder"

func New(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

// в dev - текстовый вывод и debug, иначе JSON
func newLogger(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if env == "dev" {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}
