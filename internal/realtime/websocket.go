package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketSubscriber adapts a gorilla/websocket connection to the
// EventSubscriber interface so it can register with an EventBus.
type WebSocketSubscriber struct {
	baseSubscriber
	conn   *websocket.Conn
	logger *slog.Logger
	cancel context.CancelFunc
}

// UpgradeSubscriber upgrades an HTTP request to a WebSocket connection and
// wraps it as an EventSubscriber. filterID scopes the connection to one
// filter's subject_matched/subject_unmatched/filter_error events; pass ""
// to receive those for every filter, plus every pool_refreshed and
// system_notification event either way. The returned subscriber is not yet
// registered with any EventBus; the caller is expected to Subscribe it and
// start its read pump via Run.
func UpgradeSubscriber(w http.ResponseWriter, r *http.Request, id, filterID string, logger *slog.Logger) (*WebSocketSubscriber, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(r.Context())
	return &WebSocketSubscriber{
		baseSubscriber: baseSubscriber{id: id, filterID: filterID, ctx: ctx},
		conn:           conn,
		logger:         logger.With("component", "ws_subscriber", "subscriber_id", id, "filter_id", filterID),
		cancel:         cancel,
	}, nil
}

// Send writes an event to the underlying WebSocket connection as JSON.
func (s *WebSocketSubscriber) Send(event Event) error {
	select {
	case <-s.ctx.Done():
		return ErrSubscriberClosed
	default:
	}

	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(event)
}

// Close closes the underlying WebSocket connection and cancels its context.
func (s *WebSocketSubscriber) Close() error {
	s.cancel()
	return s.conn.Close()
}

// Run drives the connection's read pump: it keeps the connection alive with
// periodic pings and blocks until the client disconnects or the bus context
// is cancelled. Callers should run it in its own goroutine and unsubscribe
// the subscriber when it returns.
func (s *WebSocketSubscriber) Run(busCtx context.Context) {
	defer s.Close()

	s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := s.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					s.logger.Warn("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-busCtx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("ping failed, closing connection", "error", err)
				return
			}
		}
	}
}
