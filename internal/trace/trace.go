// Package trace tags the log records of one CLI invocation or one handled
// change event with a shared run id.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"growly/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RunIDKey is the context key for the run id
	RunIDKey ContextKey = "run_id"
)

// GenerateRunID creates a unique run id for tracing
func GenerateRunID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	return "run_" + hex.EncodeToString(bytes)
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// RunID extracts the run id from context
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// Handler adds the context's run id to every record it passes on.
type Handler struct {
	slog.Handler
}

func NewHandler(next slog.Handler) *Handler {
	return &Handler{Handler: next}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id := RunID(ctx); id != "" {
		r.AddAttrs(slog.String(string(RunIDKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}

// Run executes fn under a fresh run id and logs its start and completion.
// Failures complete at error level.
func Run(ctx context.Context, logger *log.Logger, operation string, fn func(context.Context) error) error {
	start := time.Now()
	ctx = WithRunID(ctx, GenerateRunID())

	logger.DebugContext(ctx, "Operation started", log.FieldOperation, operation)

	err := fn(ctx)

	duration := time.Since(start)
	level := slog.LevelInfo
	attrs := []any{
		log.FieldComponent, logger.Component(),
		log.FieldOperation, operation,
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, log.FieldError, err)
	}
	logger.Log(ctx, level, "Operation completed", attrs...)
	return err
}
