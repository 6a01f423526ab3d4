// Package context carries navigator operation metadata through context.Context
// so that every log line of one open/close/replace can be correlated.
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	operationIDKey ctxKey = iota
	operationKey
	screenKey
	startTimeKey
)

const (
	unknownOperationID = "unknown-operation-id"
	unknownOperation   = "unknown-operation"
)

// WithOperationID adds an operation ID to the context
func WithOperationID(parent context.Context, operationID string) context.Context {
	if operationID == "" {
		operationID = GenerateOperationID()
	}
	return context.WithValue(parent, operationIDKey, operationID)
}

// GetOperationID retrieves the operation ID from context
func GetOperationID(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey).(string); ok && id != "" {
		return id
	}
	return unknownOperationID
}

// WithOperation adds an operation name ("open", "close", ...) to the context
func WithOperation(parent context.Context, operation string) context.Context {
	return context.WithValue(parent, operationKey, operation)
}

// GetOperation retrieves the operation name from context
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey).(string); ok && op != "" {
		return op
	}
	return unknownOperation
}

// WithScreen records the screen an operation targets.
func WithScreen(parent context.Context, screen string) context.Context {
	return context.WithValue(parent, screenKey, screen)
}

// GetScreen retrieves the targeted screen name, or "" when none was recorded.
func GetScreen(ctx context.Context) string {
	if s, ok := ctx.Value(screenKey).(string); ok {
		return s
	}
	return ""
}

// WithStartTime adds the operation start time to the context
func WithStartTime(parent context.Context, startTime time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, startTime)
}

// GetStartTime retrieves the operation start time from context.
// The zero time is returned when no start time was recorded.
func GetStartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startTimeKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// GetDuration calculates the duration since the start time in context.
// It returns 0 when the context carries no start time.
func GetDuration(ctx context.Context) time.Duration {
	start := GetStartTime(ctx)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// GenerateOperationID creates a new unique operation ID
func GenerateOperationID() string {
	return "op_" + uuid.New().String()
}

// EnrichContext tags ctx with a fresh operation ID (unless one is present),
// the operation name and the current time.
func EnrichContext(parent context.Context, operation string) context.Context {
	ctx := parent

	if GetOperationID(ctx) == unknownOperationID {
		ctx = WithOperationID(ctx, GenerateOperationID())
	}

	ctx = WithOperation(ctx, operation)
	return WithStartTime(ctx, time.Now())
}

// TracingFields returns common tracing fields for structured logging
func TracingFields(ctx context.Context) map[string]interface{} {
	fields := map[string]interface{}{
		"operation_id": GetOperationID(ctx),
		"operation":    GetOperation(ctx),
		"duration_ms":  GetDuration(ctx).Milliseconds(),
	}
	if s := GetScreen(ctx); s != "" {
		fields["screen"] = s
	}
	return fields
}
