package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type ContextKey string

// TraceIDKey holds the per-request trace ID echoed in error bodies.
const TraceIDKey ContextKey = "traceID"

// SetTraceID stores a new 32-character hex trace ID in ctx.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetTraceID returns the trace ID in ctx, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}
