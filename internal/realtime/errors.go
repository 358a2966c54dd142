package realtime

import "errors"

var (
	// ErrEventChannelFull is returned by Publish when the broadcast worker
	// can't keep up and the bus's internal event queue is saturated; the
	// event (a subject_matched/pool_refreshed/etc.) is dropped rather than
	// blocking the publisher.
	ErrEventChannelFull = errors.New("event channel full")

	// ErrSubscriberClosed is returned by Send when the stream client's
	// connection has already gone away.
	ErrSubscriberClosed = errors.New("subscriber closed")
)
