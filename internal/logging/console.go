package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one line per record:
//
//	2026-01-02T15:04:05Z INFO  [review #7] item ready for review status=pending
//
// The component and item id are lifted into the bracketed prefix; every other
// attribute follows as key=value.
type consoleHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Leveler
	withSource bool
	color      bool

	component string
	itemID    string
	prefix    string // pre-rendered " key=value" pairs from WithAttrs
	group     string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource, color bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, withSource: withSource, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, attr := range attrs {
		next.absorb(&b, h.group, attr)
	}
	next.prefix = b.String()
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	rec := *h
	var attrs strings.Builder
	attrs.WriteString(h.prefix)
	r.Attrs(func(attr slog.Attr) bool {
		rec.absorb(&attrs, h.group, attr)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line strings.Builder
	line.WriteString(ts.UTC().Format(time.RFC3339))
	line.WriteByte(' ')
	line.WriteString(h.levelLabel(r.Level))
	if tag := rec.tag(); tag != "" {
		line.WriteString(" [")
		line.WriteString(tag)
		line.WriteByte(']')
	}
	line.WriteByte(' ')
	if msg := strings.TrimSpace(r.Message); msg != "" {
		line.WriteString(msg)
	} else {
		line.WriteString("(no message)")
	}
	if h.withSource {
		if src := r.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&line, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	line.WriteString(attrs.String())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line.String())
	return err
}

// absorb renders attr into b, capturing the component and item id instead of
// printing them.
func (h *consoleHandler) absorb(b *strings.Builder, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := group
		if attr.Key != "" {
			inner = joinKey(group, attr.Key)
		}
		for _, child := range attr.Value.Group() {
			h.absorb(b, inner, child)
		}
		return
	}
	if group == "" {
		switch attr.Key {
		case FieldComponent:
			h.component = attr.Value.String()
			return
		case FieldItemID:
			h.itemID = attr.Value.String()
			return
		}
	}
	b.WriteByte(' ')
	b.WriteString(joinKey(group, attr.Key))
	b.WriteByte('=')
	b.WriteString(renderValue(attr.Value))
}

func (h *consoleHandler) tag() string {
	switch {
	case h.component != "" && h.itemID != "":
		return h.component + " #" + h.itemID
	case h.itemID != "":
		return "#" + h.itemID
	default:
		return h.component
	}
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	label, color := "DEBUG", "90"
	switch {
	case level >= slog.LevelError:
		label, color = "ERROR", "31"
	case level >= slog.LevelWarn:
		label, color = "WARN ", "33"
	case level >= slog.LevelInfo:
		label, color = "INFO ", "36"
	}
	if !h.color {
		return label
	}
	return "\x1b[" + color + "m" + label + "\x1b[0m"
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		return v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
