// Package logger holds the process-wide zerolog logger.
//
// Call Init once at startup, then Get anywhere.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level  string
	Pretty bool
	Output io.Writer
}

var (
	mu       sync.RWMutex
	instance = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Init replaces the global logger and returns it.
func Init(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()

	mu.Lock()
	instance = l
	mu.Unlock()
	return l
}

// Get returns the current logger. Before Init it writes JSON to stderr.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := instance
	return &l
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
