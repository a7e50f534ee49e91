package audit

import (
	"context"
	"fmt"
	"sync"
)

// MultiLogger fans audit events out to multiple sinks, typically a DBLogger
// plus a FileLogger for off-host shipping.
type MultiLogger struct {
	loggers []Logger
	async   bool
	wg      sync.WaitGroup
	errChan chan error
}

// NewMultiLogger creates a new multi-logger that writes to multiple destinations
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
		async:   true,
		errChan: make(chan error, len(loggers)),
	}
}

// SetAsync sets whether logging should be asynchronous
func (m *MultiLogger) SetAsync(async bool) {
	m.async = async
}

// Log logs an audit event to all configured loggers
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	if len(m.loggers) == 0 {
		return nil
	}

	if m.async {
		return m.logAsync(ctx, event)
	}

	return m.logSync(ctx, event)
}

// logSync logs to every sink and returns the first failure; one failing
// sink never stops the others.
func (m *MultiLogger) logSync(ctx context.Context, event *Event) error {
	var firstErr error

	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// logAsync logs asynchronously to all loggers
func (m *MultiLogger) logAsync(ctx context.Context, event *Event) error {
	for _, logger := range m.loggers {
		m.wg.Add(1)
		go func(l Logger) {
			defer m.wg.Done()
			if err := l.Log(ctx, event); err != nil {
				select {
				case m.errChan <- err:
				default:
					// channel full, drop error
				}
			}
		}(logger)
	}

	return nil
}

// LogAuthentication implements Logger.LogAuthentication.
func (m *MultiLogger) LogAuthentication(ctx context.Context, eventType EventType, username string, status EventStatus, message string) error {
	event := NewEvent(eventType, status)
	event.Username = username
	event.Message = message
	event.ResourceType = ResourceTypeUser
	return m.Log(ctx, event)
}

// LogAuthorization implements Logger.LogAuthorization.
func (m *MultiLogger) LogAuthorization(ctx context.Context, username string, resourceType ResourceType, resourceID string, status EventStatus, message string) error {
	event := NewEvent(EventTypeAuthzAccessDenied, status)
	event.Username = username
	event.ResourceType = resourceType
	event.ResourceID = resourceID
	event.Message = message
	return m.Log(ctx, event)
}

// Wait waits for all async logging operations to complete
func (m *MultiLogger) Wait() {
	m.wg.Wait()
}

// GetErrors returns any errors that occurred during async logging
func (m *MultiLogger) GetErrors() []error {
	var errors []error
	for {
		select {
		case err := <-m.errChan:
			errors = append(errors, err)
		default:
			return errors
		}
	}
}

// Close closes all loggers
func (m *MultiLogger) Close() error {
	m.wg.Wait()

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to close logger: %w", err)
			}
		}
	}

	close(m.errChan)
	return firstErr
}
