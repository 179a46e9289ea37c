// Package enginelog sets up the structured logger shared by the engine's
// runner binaries.
package enginelog

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-formatted zerolog.Logger at the given level name.
// Any name zerolog.ParseLevel accepts (trace, debug, info, warn, error, ...)
// sets that level; a name it rejects falls back to info.
func New(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}
