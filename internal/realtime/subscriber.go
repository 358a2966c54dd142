package realtime

import (
	"context"
)

// EventSubscriber represents a live consumer of filter-stream events: a
// WebSocket connection opened against /v1/filter/stream.
type EventSubscriber interface {
	// ID returns the unique subscriber ID.
	ID() string

	// FilterID returns the filter the subscriber scoped its connection to,
	// or "" if it wants every event the bus carries (pool_refreshed and
	// system_notification always go out unscoped; a non-empty FilterID
	// additionally gates delivery of subject_matched/subject_unmatched/
	// filter_error events to the filter it names).
	FilterID() string

	// Send sends an event to the subscriber.
	// Returns an error if the subscriber is closed or the event cannot be sent.
	Send(event Event) error

	// Close closes the subscriber connection.
	Close() error

	// Context returns the subscriber context (for cancellation).
	Context() context.Context
}

// baseSubscriber provides the bookkeeping every EventSubscriber needs:
// identity, the filter it's scoped to, and a cancellation context.
type baseSubscriber struct {
	id       string
	filterID string
	ctx      context.Context
}

// ID returns the subscriber ID.
func (s *baseSubscriber) ID() string {
	return s.id
}

// FilterID returns the filter this subscriber is scoped to, or "" if unscoped.
func (s *baseSubscriber) FilterID() string {
	return s.filterID
}

// Context returns the subscriber context.
func (s *baseSubscriber) Context() context.Context {
	return s.ctx
}
