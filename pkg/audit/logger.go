package audit

import (
	"context"
	"time"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log logs an audit event
	Log(ctx context.Context, event *Event) error

	// LogAuthentication logs a login, logout or password-change event.
	LogAuthentication(ctx context.Context, eventType EventType, username string, status EventStatus, message string) error

	// LogAuthorization logs an access decision on a resource.
	LogAuthorization(ctx context.Context, username string, resourceType ResourceType, resourceID string, status EventStatus, message string) error

	// Close closes the logger and flushes any buffered events
	Close() error
}

// contextKey is the type for context keys
type contextKey string

// AuditLoggerKey is the context key for the audit logger
const AuditLoggerKey contextKey = "audit_logger"

// WithLogger adds an audit logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, AuditLoggerKey, logger)
}

// FromContext retrieves the audit logger from context, returning a no-op
// logger when none is set.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(AuditLoggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

// NewNopLogger returns a logger that discards every event.
func NewNopLogger() Logger {
	return &noOpLogger{}
}

// noOpLogger is a logger that does nothing (used when no logger is configured)
type noOpLogger struct{}

func (n *noOpLogger) Log(ctx context.Context, event *Event) error { return nil }
func (n *noOpLogger) LogAuthentication(ctx context.Context, eventType EventType, username string, status EventStatus, message string) error {
	return nil
}
func (n *noOpLogger) LogAuthorization(ctx context.Context, username string, resourceType ResourceType, resourceID string, status EventStatus, message string) error {
	return nil
}
func (n *noOpLogger) Close() error { return nil }

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, status EventStatus) *Event {
	return &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
	}
}
