package realtime

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

func TestEventPublisher_PublishSubjectMatched(t *testing.T) {
	// Use nil metrics to avoid Prometheus registration issues in tests
	eventBus := NewEventBus(slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := eventBus.Start(ctx)
	require.NoError(t, err)
	defer eventBus.Stop(context.Background())

	publisher := NewEventPublisher(eventBus, slog.Default(), nil)

	subject := &selector.Subject{ID: selector.StrPtr("web1")}
	err = publisher.PublishSubjectMatched("f1", "web*", subject)
	assert.NoError(t, err)
}

func TestEventPublisher_PublishSubjectUnmatched(t *testing.T) {
	eventBus := NewEventBus(slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := eventBus.Start(ctx)
	require.NoError(t, err)
	defer eventBus.Stop(context.Background())

	publisher := NewEventPublisher(eventBus, slog.Default(), nil)

	subject := &selector.Subject{ID: selector.StrPtr("web1")}
	err = publisher.PublishSubjectUnmatched("f1", "web*", subject)
	assert.NoError(t, err)
}

func TestEventPublisher_PublishPoolRefreshed(t *testing.T) {
	eventBus := NewEventBus(slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := eventBus.Start(ctx)
	require.NoError(t, err)
	defer eventBus.Stop(context.Background())

	publisher := NewEventPublisher(eventBus, slog.Default(), nil)

	err = publisher.PublishPoolRefreshed(PoolStats{
		SubjectCount: 100,
		Matched:      10,
		Unmatched:    2,
		Duration:     50 * time.Millisecond,
	})
	assert.NoError(t, err)
}

func TestEventPublisher_PublishFilterError(t *testing.T) {
	eventBus := NewEventBus(slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := eventBus.Start(ctx)
	require.NoError(t, err)
	defer eventBus.Stop(context.Background())

	publisher := NewEventPublisher(eventBus, slog.Default(), nil)

	err = publisher.PublishFilterError("f1", "and web*", errors.New("leading operator"))
	assert.NoError(t, err)
}

func TestEventPublisher_PublishSystemNotification(t *testing.T) {
	eventBus := NewEventBus(slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := eventBus.Start(ctx)
	require.NoError(t, err)
	defer eventBus.Stop(context.Background())

	publisher := NewEventPublisher(eventBus, slog.Default(), nil)

	err = publisher.PublishSystemNotification("info", "range provider degraded")
	assert.NoError(t, err)
}

func TestEventPublisher_NilEventBus(t *testing.T) {
	// Publisher should handle nil EventBus gracefully
	publisher := NewEventPublisher(nil, slog.Default(), nil)

	subject := &selector.Subject{ID: selector.StrPtr("web1")}

	// Should not panic
	err := publisher.PublishSubjectMatched("f1", "web*", subject)
	assert.NoError(t, err) // Returns nil when EventBus is nil
}
