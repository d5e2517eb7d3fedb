package slogx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// ChanWriter buffers writes and sends complete lines to a channel.
// Used with slog handlers for fan-in logging from day workers.
type ChanWriter struct {
	Ch  chan<- string
	Buf []byte
	// Block waits for room in Ch instead of dropping the line.
	Block   bool
	Dropped atomic.Int64
}

func (w *ChanWriter) Write(p []byte) (n int, err error) {
	w.Buf = append(w.Buf, p...)
	for {
		i := bytes.IndexByte(w.Buf, '\n')
		if i < 0 {
			break
		}
		line := string(w.Buf[:i])
		w.Buf = w.Buf[i+1:]
		if w.Block {
			w.Ch <- line
			continue
		}
		select {
		case w.Ch <- line:
		default:
			w.Dropped.Add(1)
		}
	}
	return len(p), nil
}

// ChanLogger is a logger writing text lines to a channel. Records below
// Warn are dropped when the channel is full and counted; Warn and above
// wait for room.
type ChanLogger struct {
	*slog.Logger
	low *ChanWriter
}

// Dropped is the number of lines lost to a full channel.
func (l *ChanLogger) Dropped() int64 {
	return l.low.Dropped.Load()
}

// NewChanLogger creates a ChanLogger on ch. The level follows the default
// logger so --log-level applies to worker output too.
func NewChanLogger(ch chan<- string) *ChanLogger {
	low := &ChanWriter{Ch: ch}
	high := &ChanWriter{Ch: ch, Block: true}
	opts := &slog.HandlerOptions{Level: defaultLevel}
	h := &levelSplitHandler{
		low:  slog.NewTextHandler(low, opts),
		high: slog.NewTextHandler(high, opts),
	}
	return &ChanLogger{Logger: slog.New(h), low: low}
}

// levelSplitHandler sends Warn and above to high, the rest to low.
type levelSplitHandler struct {
	low, high slog.Handler
}

func (h *levelSplitHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.low.Enabled(ctx, l)
}

func (h *levelSplitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		return h.high.Handle(ctx, r)
	}
	return h.low.Handle(ctx, r)
}

func (h *levelSplitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelSplitHandler{low: h.low.WithAttrs(attrs), high: h.high.WithAttrs(attrs)}
}

func (h *levelSplitHandler) WithGroup(name string) slog.Handler {
	return &levelSplitHandler{low: h.low.WithGroup(name), high: h.high.WithGroup(name)}
}

var defaultLevel = new(slog.LevelVar)

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w. Format "json" selects the JSON handler,
// anything else the text handler.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewDefault creates a stderr logger and records its level for chan loggers.
func NewDefault(level, format string) *slog.Logger {
	defaultLevel.Set(ParseLevel(level))
	return New(os.Stderr, level, format)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
