// Package util hosts small helpers shared across the signal engine.
package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger at the requested level, falling back to
// info when the level string is unknown. Non-production environments get
// pretty console output; everything else emits JSON lines.
func NewLogger(level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if strings.EqualFold(env, "production") || strings.EqualFold(env, "prod") {
		out = zerolog.New(os.Stdout)
	} else {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return out.With().Timestamp().Logger().Level(lvl)
}
