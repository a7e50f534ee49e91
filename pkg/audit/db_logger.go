package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DBLogger implements audit logging to PostgreSQL
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-based audit logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}

	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_log table: %w", err)
	}

	return logger, nil
}

// ensureTable creates the audit_log table if it doesn't exist
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		event_type VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		username VARCHAR(255),
		target_username VARCHAR(255),
		resource_type VARCHAR(50),
		resource_id VARCHAR(255),
		ip_address VARCHAR(45),
		request_id VARCHAR(100),
		message TEXT,
		metadata JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_log_event_type ON audit_log(event_type);
	CREATE INDEX IF NOT EXISTS idx_audit_log_username ON audit_log(username);
	`

	_, err := l.db.Exec(query)
	return err
}

// Log logs an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	var metadataJSON []byte
	var err error

	if event.Metadata != nil {
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (
			timestamp, event_type, status,
			username, target_username,
			resource_type, resource_id,
			ip_address, request_id,
			message, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err = l.db.QueryRowContext(ctx, query,
		event.Timestamp, event.EventType, event.Status,
		event.Username, event.TargetUsername,
		event.ResourceType, event.ResourceID,
		event.IPAddress, event.RequestID,
		event.Message, metadataJSON,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// LogAuthentication implements Logger.LogAuthentication.
func (l *DBLogger) LogAuthentication(ctx context.Context, eventType EventType, username string, status EventStatus, message string) error {
	event := NewEvent(eventType, status)
	event.Username = username
	event.Message = message
	return l.Log(ctx, event)
}

// LogAuthorization implements Logger.LogAuthorization.
func (l *DBLogger) LogAuthorization(ctx context.Context, username string, resourceType ResourceType, resourceID string, status EventStatus, message string) error {
	event := NewEvent(EventTypeAuthzAccessDenied, status)
	event.Username = username
	event.ResourceType = resourceType
	event.ResourceID = resourceID
	event.Message = message
	return l.Log(ctx, event)
}

// Search returns events matching the filter, newest first.
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Event, error) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StartTime != nil {
		conditions = append(conditions, "timestamp >= "+arg(*filter.StartTime))
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "timestamp <= "+arg(*filter.EndTime))
	}
	if filter.Username != "" {
		conditions = append(conditions, "username = "+arg(filter.Username))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+arg(string(*filter.Status)))
	}
	if len(filter.EventTypes) > 0 {
		placeholders := make([]string, len(filter.EventTypes))
		for i, et := range filter.EventTypes {
			placeholders[i] = arg(string(et))
		}
		conditions = append(conditions, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `
		SELECT id, timestamp, event_type, status,
		       username, target_username,
		       resource_type, resource_id,
		       ip_address, request_id,
		       message, metadata
		FROM audit_log
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT " + arg(limit)
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var username, target, resourceType, resourceID, ipAddress, requestID, message sql.NullString
		var metadataJSON []byte

		err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &e.Status,
			&username, &target, &resourceType, &resourceID,
			&ipAddress, &requestID, &message, &metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}

		e.Username = username.String
		e.TargetUsername = target.String
		e.ResourceType = ResourceType(resourceType.String)
		e.ResourceID = resourceID.String
		e.IPAddress = ipAddress.String
		e.RequestID = requestID.String
		e.Message = message.String

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		events = append(events, &e)
	}
	return events, rows.Err()
}

// Cleanup deletes events older than the retention window and returns how
// many rows were removed. A zero retention disables cleanup.
func (l *DBLogger) Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error) {
	if policy.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -policy.RetentionDays)

	result, err := l.db.ExecContext(ctx, `DELETE FROM audit_log WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit events: %w", err)
	}

	return result.RowsAffected()
}

// Close implements Logger.Close. The connection is owned by the caller.
func (l *DBLogger) Close() error {
	return nil
}
