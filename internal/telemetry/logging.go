package telemetry

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger replaces the global zerolog logger. format is "console" or
// "json"; level is any zerolog level name.
func SetupLogger(out io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	writer := out
	switch strings.ToLower(format) {
	case "", "console":
		writer = zerolog.ConsoleWriter{Out: out}
	case "json":
	default:
		return fmt.Errorf("invalid log format %q (expected console or json)", format)
	}

	log.Logger = zerolog.New(writer).
		With().
		Timestamp().
		Str("service", "queryquest").
		Logger().
		Level(lvl)
	return nil
}
