// Package ports declares the narrow contracts the scheduler depends on but
// does not implement itself: structured logging and client identity. This
// mirrors streamy's internal/ports package — the scheduler core never binds
// to a concrete logging library directly.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the scheduler's structured logging contract. Every call takes
// key/value pairs and must be safe for concurrent use; implementations
// should enrich entries with the correlation ID when present in ctx.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation ID to ctx so every log line
// emitted during one Traverse call can be tied back to it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID extracts the correlation ID from ctx, or "" if none was
// set.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID produces a new correlation ID for one Traverse
// invocation.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// NoOpLogger discards everything; useful as a default when callers don't
// supply a logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(context.Context, string, ...interface{}) {}
func (NoOpLogger) Info(context.Context, string, ...interface{})  {}
func (NoOpLogger) Warn(context.Context, string, ...interface{})  {}
func (NoOpLogger) Error(context.Context, string, ...interface{}) {}
func (NoOpLogger) With(...interface{}) Logger                    { return NoOpLogger{} }

var _ Logger = NoOpLogger{}
