// internal/logging/logging.go

// Package logging builds the process logger: human-readable text on stderr,
// optionally fanned out to a JSON diagnostics file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

type Options struct {
	Stderr   io.Writer
	JSONPath string // empty disables the JSON diagnostics file
	Quiet    bool   // only errors
	Debug    bool
}

// Level resolves the effective level. DEBUG or SEQFILE_DEBUG in the
// environment force debug output.
func (o Options) Level() slog.Level {
	switch {
	case o.Debug || os.Getenv("DEBUG") != "" || os.Getenv("SEQFILE_DEBUG") != "":
		return slog.LevelDebug
	case o.Quiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger tagged with a fresh run id and a close func for the
// diagnostics file (a no-op when there is none).
func New(o Options) (*slog.Logger, func() error, error) {
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: o.Level()}
	closer := func() error { return nil }

	var h slog.Handler = slog.NewTextHandler(o.Stderr, hopts)
	if o.JSONPath != "" {
		fh, err := os.Create(o.JSONPath)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open log file %q for writing: %w", o.JSONPath, err)
		}
		// The file always receives warnings so parse diagnostics survive --quiet.
		fileLevel := o.Level()
		if fileLevel > slog.LevelWarn {
			fileLevel = slog.LevelWarn
		}
		h = slogmulti.Fanout(h, slog.NewJSONHandler(fh, &slog.HandlerOptions{Level: fileLevel}))
		closer = fh.Close
	}
	return slog.New(h).With(slog.String("run", uuid.NewString())), closer, nil
}

// Discard is a logger that drops everything; the default for components
// constructed without one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard returns l, or Discard() when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
