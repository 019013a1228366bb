package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/docdesk/internal/models"
)

const (
	eventSource  = "/docdesk/history"
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

// Hub fans history change events out to websocket subscribers.
// A subscriber that falls behind by more than sendBuffer events is dropped.
type Hub struct {
	mu       sync.Mutex
	clients  map[*subscriber]struct{}
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an event hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// NewHistoryEvent wraps a history change in a CloudEvent.
func NewHistoryEvent(eventType string, rec models.TranslationRecord) (cloudevents.Event, error) {
	ev := cloudevents.NewEvent()
	ev.SetID(uuid.NewString())
	ev.SetSource(eventSource)
	ev.SetType(eventType)
	ev.SetSubject(rec.ID)
	ev.SetTime(time.Now().UTC())
	if err := ev.SetData(cloudevents.ApplicationJSON, rec); err != nil {
		return ev, fmt.Errorf("set event data: %w", err)
	}
	return ev, nil
}

// Publish sends a history change to every subscriber.
func (h *Hub) Publish(eventType string, rec models.TranslationRecord) {
	ev, err := NewHistoryEvent(eventType, rec)
	if err != nil {
		h.logger.Warn("build history event", "type", eventType, "error", err)
		return
	}
	data, err := ev.MarshalJSON()
	if err != nil {
		h.logger.Warn("encode history event", "type", eventType, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow history subscriber", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the peer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) writeLoop(c *subscriber) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// removeLocked unregisters c. Caller must hold h.mu.
func (h *Hub) removeLocked(c *subscriber) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Run blocks until ctx is done, then disconnects all subscribers.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
	return nil
}
