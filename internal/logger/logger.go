package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New() zerolog.Logger {
	return WithLevel(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// WithLevel builds the service logger on w. Unknown or empty levels fall back to debug.
func WithLevel(w io.Writer, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}

	return logger.Level(lvl)
}

var Module = fx.Provide(New)
