package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/soundprediction/pathfinder/pkg/config"
)

var (
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	foundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	keyStyle   = lipgloss.NewStyle().Faint(true)
)

// ColorHandler is a slog.Handler writing one human-readable line per record.
// Levels are colored when the output is a terminal; messages about found
// paths are highlighted in green.
type ColorHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
}

// NewColorHandler creates a ColorHandler writing to w. Colors are enabled
// only when w is a terminal.
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ColorHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: level,
		color: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled implements slog.Handler.
func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format("15:04:05.000"))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.render(levelStyle(r.Level), fmt.Sprintf("%-5s", r.Level.String())))
	buf.WriteByte(' ')

	msg := r.Message
	switch {
	case r.Level >= slog.LevelError:
		msg = h.render(errorStyle, msg)
	case r.Level >= slog.LevelWarn:
		msg = h.render(warnStyle, msg)
	case isFoundMessage(msg):
		msg = h.render(foundStyle, msg)
	}
	buf.WriteString(msg)

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		h.appendAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ColorHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, key, ga)
		}
		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.render(keyStyle, key+"="))
	buf.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

// WithAttrs implements slog.Handler.
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	prefix := strings.Join(h.groups, ".")
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a = slog.Attr{Key: prefix + "." + a.Key, Value: a.Value}
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup implements slog.Handler.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}

func (h *ColorHandler) render(style lipgloss.Style, s string) string {
	if !h.color {
		return s
	}
	return style.Render(s)
}

func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return errorStyle
	case level >= slog.LevelWarn:
		return warnStyle
	case level >= slog.LevelInfo:
		return infoStyle
	default:
		return debugStyle
	}
}

func isFoundMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "path found") || strings.Contains(lower, "target reached")
}

// NewDefaultLogger creates a colored logger writing to stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewLogger creates a logger from configuration. Format "json" writes JSON
// lines; anything else uses the color handler.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(NewColorHandler(w, opts))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
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
