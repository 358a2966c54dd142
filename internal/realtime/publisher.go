package realtime

import (
	"log/slog"
	"time"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// EventPublisher publishes subject/filter state-change events and operator
// notifications to an EventBus. Nothing in this module constructs one: the
// server wires the bus to /v1/filter/stream, and no loop in it evaluates
// filters or publishes events.
type EventPublisher struct {
	eventBus *DefaultEventBus
	logger   *slog.Logger
	metrics  *RealtimeMetrics
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher(eventBus *DefaultEventBus, logger *slog.Logger, metrics *RealtimeMetrics) *EventPublisher {
	return &EventPublisher{
		eventBus: eventBus,
		logger:   logger.With("component", "event_publisher"),
		metrics:  metrics,
	}
}

// subjectEventData builds the common payload shared by subject_matched and
// subject_unmatched events.
func subjectEventData(filterID, expr string, subject *selector.Subject) map[string]interface{} {
	data := map[string]interface{}{
		"filter_id": filterID,
		"expr":      expr,
	}
	if subject.HasID() {
		data["subject_id"] = subject.IDValue()
	}
	if subject.HasFQDN() {
		data["subject_fqdn"] = subject.FQDNValue()
	}
	return data
}

// PublishSubjectMatched publishes a subject_matched event: subject now
// satisfies the filter expression registered under filterID.
func (p *EventPublisher) PublishSubjectMatched(filterID, expr string, subject *selector.Subject) error {
	if p.eventBus == nil {
		return nil // EventBus not initialized, skip
	}

	event := NewEvent(EventTypeSubjectMatched, subjectEventData(filterID, expr, subject), EventSourceFilterStream)
	return p.eventBus.Publish(*event)
}

// PublishSubjectUnmatched publishes a subject_unmatched event: subject no
// longer satisfies the filter expression registered under filterID.
func (p *EventPublisher) PublishSubjectUnmatched(filterID, expr string, subject *selector.Subject) error {
	if p.eventBus == nil {
		return nil // EventBus not initialized, skip
	}

	event := NewEvent(EventTypeSubjectUnmatched, subjectEventData(filterID, expr, subject), EventSourceFilterStream)
	return p.eventBus.Publish(*event)
}

// PoolStats summarizes a completed subject pool refresh pass.
type PoolStats struct {
	SubjectCount int
	Matched      int
	Unmatched    int
	Duration     time.Duration
}

// PublishPoolRefreshed publishes a pool_refreshed event after a
// re-evaluation pass over the subject pool completes.
func (p *EventPublisher) PublishPoolRefreshed(stats PoolStats) error {
	if p.eventBus == nil {
		return nil
	}

	data := map[string]interface{}{
		"subject_count": stats.SubjectCount,
		"matched":       stats.Matched,
		"unmatched":     stats.Unmatched,
		"duration_ms":   stats.Duration.Milliseconds(),
	}

	event := NewEvent(EventTypePoolRefreshed, data, EventSourcePoolRefresh)
	return p.eventBus.Publish(*event)
}

// PublishFilterError publishes a filter_error event when a subscribed
// filter expression fails to parse or evaluate.
func (p *EventPublisher) PublishFilterError(filterID, expr string, cause error) error {
	if p.eventBus == nil {
		return nil
	}

	data := map[string]interface{}{
		"filter_id": filterID,
		"expr":      expr,
		"error":     cause.Error(),
	}

	event := NewEvent(EventTypeFilterError, data, EventSourceFilterStream)
	return p.eventBus.Publish(*event)
}

// PublishSystemNotification publishes an operator-facing notification
// unrelated to any specific filter.
func (p *EventPublisher) PublishSystemNotification(level string, message string) error {
	if p.eventBus == nil {
		return nil // EventBus not initialized, skip
	}

	data := map[string]interface{}{
		"level":   level, // info, warning, error
		"message": message,
	}

	event := NewEvent(EventTypeSystemNotification, data, EventSourceSystem)
	return p.eventBus.Publish(*event)
}
