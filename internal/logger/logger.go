// Package logger configures the process-wide slog logger and carries request
// scoped attributes through the context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

type ctxKey int8

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyModule
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Handler adds the request id and module stored in the context to every
// record.
type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		record.AddAttrs(slog.String("request_id", v))
	}
	if v, ok := ctx.Value(ctxKeyModule).(string); ok {
		record.AddAttrs(slog.String("module", v))
	}

	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h.Handler.WithGroup(name)}
}

// ParseLevel accepts debug, info, warn and error in any case. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(level) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// New builds a logger writing to w in the given format.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
	case FormatText:
		h = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(l),
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(&Handler{h}), nil
}

// Setup builds a stdout logger and installs it as the slog default.
func Setup(level, format string) (*slog.Logger, error) {
	l, err := New(os.Stdout, level, format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

func WithModule(ctx context.Context, module string) context.Context {
	return context.WithValue(ctx, ctxKeyModule, module)
}

func RequestIDFromCtx(ctx context.Context) string {
	requestID, ok := ctx.Value(ctxKeyRequestID).(string)
	if !ok {
		return ""
	}

	return requestID
}
