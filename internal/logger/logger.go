package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the service logger. format "pretty" gives console output,
// anything else emits JSON lines. Unknown levels fall back to info.
func Setup(level, format string) zerolog.Logger {
	return SetupWithWriter(os.Stdout, level, format)
}

func SetupWithWriter(out io.Writer, level, format string) zerolog.Logger {
	if format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "driving-exam").
		Logger()
}
