package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vitaliisemenov/selector-engine/internal/api/middleware"
	"github.com/vitaliisemenov/selector-engine/internal/realtime"
)

// NewStreamHandler upgrades the request to a WebSocket connection and
// subscribes it to bus, relaying pool_refreshed/system_notification events
// plus subject_matched/subject_unmatched/filter_error events until the
// client disconnects. An optional ?filter_id= query parameter scopes the
// subject/filter events to one registered filter; omitted, the client
// receives those for every filter. bus may be nil, in which case the
// handler responds 503 Service Unavailable: the deployment wasn't
// configured with live streaming enabled.
func NewStreamHandler(bus *realtime.DefaultEventBus, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bus == nil {
			http.Error(w, "live filter stream is not enabled", http.StatusServiceUnavailable)
			return
		}

		requestID := middleware.GetRequestID(r.Context())
		filterID := r.URL.Query().Get("filter_id")
		sub, err := realtime.UpgradeSubscriber(w, r, uuid.New().String(), filterID, logger)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err, "request_id", requestID)
			return
		}

		if err := bus.Subscribe(sub); err != nil {
			logger.Warn("failed to subscribe stream client", "error", err, "request_id", requestID)
			sub.Close()
			return
		}

		sub.Run(r.Context())
		bus.Unsubscribe(sub)
	}
}
