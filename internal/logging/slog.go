package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// Options selects the sink and verbosity of the process logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Unknown values mean info.
	Level string
	// File, when set, sends output to a size-rotated file instead of stdout.
	File string
	// MaxSizeMB and MaxBackups tune rotation of File.
	MaxSizeMB  int
	MaxBackups int
}

// New builds the process logger. Terminals get the text handler, everything
// else (files, pipes, containers) gets JSON.
func New(opts Options) *SlogLogger {
	var w io.Writer = os.Stdout
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	if opts.File != "" {
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		isTTY = false
	}

	return NewSlogLogger(slog.New(newHandler(w, ParseLevel(opts.Level), isTTY)))
}

func newHandler(w io.Writer, level slog.Level, text bool) slog.Handler {
	ho := &slog.HandlerOptions{Level: level}
	if text {
		return slog.NewTextHandler(w, ho)
	}
	return slog.NewJSONHandler(w, ho)
}

// ParseLevel maps a config string onto a slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
