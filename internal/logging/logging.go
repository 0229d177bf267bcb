// Package logging builds the process slog.Logger: a charmbracelet/log
// handler for text output and the standard JSON handler for json.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	Level  string    // debug | info | warn | error; default info
	Format string    // text | json; default text
	Writer io.Writer // default os.Stderr
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	lvl, err := charmlog.ParseLevel(strings.ToLower(s))
	if err != nil || lvl == charmlog.FatalLevel {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return slog.Level(lvl), nil
}

// New creates a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	switch opts.Format {
	case "", "text":
		h := charmlog.NewWithOptions(w, charmlog.Options{
			Level:  charmlog.Level(lvl),
			Prefix: "graft",
		})
		return slog.New(h), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", opts.Format)
	}
}

// Setup creates a logger from opts and installs it as the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	l, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}
