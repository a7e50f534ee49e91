package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	EventTypeAuthLogin          EventType = "auth.login"
	EventTypeAuthLoginFailed    EventType = "auth.login_failed"
	EventTypeAuthLogout         EventType = "auth.logout"
	EventTypeAuthPasswordChange EventType = "auth.password_change"

	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	EventTypeDataFileUpload EventType = "data.file_upload"
	EventTypeAccessFileRead EventType = "access.file_read"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceTypeMemo      ResourceType = "memo"
	ResourceTypeMemoGroup ResourceType = "memo_group"
	ResourceTypeFile      ResourceType = "file"
	ResourceTypeUser      ResourceType = "user"
)

// Event represents a single audit log entry
type Event struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor information. TargetUsername is set when the acting principal
	// operated on another account (root password change).
	Username       string `json:"username,omitempty"`
	TargetUsername string `json:"target_username,omitempty"`

	// Resource information
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	// Request context
	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Additional details
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}

// SearchFilter restricts which events a query returns.
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time

	Username   string
	EventTypes []EventType
	Status     *EventStatus

	Limit  int
	Offset int
}

// RetentionPolicy defines how long audit events are kept.
type RetentionPolicy struct {
	RetentionDays int
}

// DefaultRetentionPolicy returns a default retention policy (90 days)
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{RetentionDays: 90}
}
