package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/nvencoder/pkg/theme"
	"github.com/muesli/termenv"
)

// ConsoleHandler is a slog.Handler for people watching a terminal: one line
// per record, "15:04:05 LEVEL message key=value", colored by level with a
// theme.LogPalette. Colors degrade with the terminal's profile.
type ConsoleHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	out     *termenv.Output
	level   slog.Leveler
	palette theme.LogPalette
	attrs   string
	group   string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler writes to w. A nil level means Info.
func NewConsoleHandler(w io.Writer, level slog.Leveler, palette theme.LogPalette, opts ...termenv.OutputOption) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		mu:      &sync.Mutex{},
		w:       w,
		out:     termenv.NewOutput(w, opts...),
		level:   level,
		palette: palette,
	}
}

// NewConsole returns a logger backed by a ConsoleHandler using the dark
// theme's log palette.
func NewConsole(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewConsoleHandler(w, level, theme.DefaultLogPalette()))
}

func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format("15:04:05"))
		buf.WriteByte(' ')
	}
	fmt.Fprintf(&buf, "%-7s %s", strings.ToUpper(LevelName(r.Level)), r.Message)
	buf.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&buf, h.group, a)
		return true
	})

	color := h.out.Color(h.palette.Color(LevelName(r.Level)))
	line := h.out.String(buf.String()).Foreground(color).String() + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	for _, a := range attrs {
		appendAttr(&buf, h.group, a)
	}
	c := *h
	c.attrs += buf.String()
	return &c
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group += name + "."
	return &c
}

func appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Key == "error" {
		a.Key = "err"
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := prefix
		if a.Key != "" {
			sub += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, sub, ga)
		}
		return
	}

	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\"=") {
		v = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(buf, " %s%s=%s", prefix, a.Key, v)
}
