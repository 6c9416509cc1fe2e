// Package logging configures the process-wide slog logger: text records to
// stderr and to a size-rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NoFile as Options.File disables the log file. An empty File does the
// same, but an empty env var cannot override a configured path.
const NoFile = "-"

// Options controls logger construction.
type Options struct {
	Level      string
	Debug      bool
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Stderr receives a copy of every record. Defaults to os.Stderr.
	Stderr io.Writer
}

// Setup builds a logger from opts and installs it as the slog default.
// The returned closer flushes and closes the rotating file; it is safe to
// call when no file is configured.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	logger, closer := New(opts)
	slog.SetDefault(logger)
	return logger, closer
}

// New builds a logger without installing it.
func New(opts Options) (*slog.Logger, io.Closer) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var (
		w      io.Writer = stderr
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" && opts.File != NoFile {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		w = io.MultiWriter(stderr, rotating)
		closer = rotating
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level, opts.Debug)})
	return slog.New(handler), closer
}

// ParseLevel maps a level name to a slog.Level. Debug mode forces
// slog.LevelDebug; unknown names fall back to info.
func ParseLevel(name string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
