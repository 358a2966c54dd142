// Package realtime broadcasts live subject/filter events to stream
// subscribers (WebSocket connections on /v1/filter/stream).
package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a real-time event broadcast to subscribers.
type Event struct {
	// Type is the event type (subject_matched, pool_refreshed, etc.)
	Type string `json:"type"`

	// ID is a unique event ID (UUID)
	ID string `json:"id"`

	// Data is the event payload (varies by event type)
	Data map[string]interface{} `json:"data"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// Source is the event source (filter_stream, pool_refresher, system)
	Source string `json:"source"`

	// Sequence is a sequence number for event ordering (monotonically increasing)
	Sequence int64 `json:"sequence"`
}

// EventType constants for live filter-stream events.
const (
	// EventTypeSubjectMatched is emitted the first time a subject starts
	// matching a subscribed filter expression.
	EventTypeSubjectMatched = "subject_matched"

	// EventTypeSubjectUnmatched is emitted when a subject that previously
	// matched a subscribed filter expression stops matching it (the
	// expression evaluates false on a later pool snapshot, or the subject
	// left the pool entirely).
	EventTypeSubjectUnmatched = "subject_unmatched"

	// EventTypePoolRefreshed is emitted after each re-evaluation pass over
	// the subject pool completes, whether or not it produced any
	// subject_matched/subject_unmatched events.
	EventTypePoolRefreshed = "pool_refreshed"

	// EventTypeFilterError is emitted when a subscribed filter expression
	// fails to parse or evaluate.
	EventTypeFilterError = "filter_error"

	// EventTypeSystemNotification carries operator-facing notices
	// unrelated to any specific filter (provider degraded, cache cleared).
	EventTypeSystemNotification = "system_notification"
)

// EventSource constants.
const (
	EventSourceFilterStream = "filter_stream"
	EventSourcePoolRefresh  = "pool_refresher"
	EventSourceSystem       = "system"
)

// NewEvent creates a new Event with the given type, data, and source.
func NewEvent(eventType string, data map[string]interface{}, source string) *Event {
	return &Event{
		Type:      eventType,
		ID:        generateEventID(),
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Sequence:  0, // Will be set by EventBus
	}
}

// generateEventID generates a unique event ID (UUID).
func generateEventID() string {
	return uuid.New().String()
}
