package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger adapts two slog loggers to the browser package's interface:
// bracketed text on stdout for progress, JSON on stderr for errors.
type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func NewLogger(verbosity int) Logger {
	level := slog.LevelInfo
	if verbosity > 1 {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	return Logger{
		InfoLog:  slog.New(NewHandler(os.Stdout, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(os.Stderr, opts)),
	}
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

// Handler renders records as "[time] [attr...] message", hiding
// attribute keys.
type Handler struct {
	h   slog.Handler
	mu  *sync.Mutex
	out io.Writer
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out: o,
		h:   slog.NewTextHandler(o, &slog.HandlerOptions{Level: opts.Level}),
		mu:  &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{h: h.h.WithAttrs(attrs), out: h.out, mu: h.mu}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h: h.h.WithGroup(name), out: h.out, mu: h.mu}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	strs := []string{r.Time.Format("[2006/01/02 15:04:05]")}
	r.Attrs(func(a slog.Attr) bool {
		strs = append(strs, fmt.Sprintf("[%s]", a.Value.String()))
		return true
	})
	strs = append(strs, r.Message, "\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(strings.Join(strs, " ")))
	return err
}
