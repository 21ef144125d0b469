package display

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/models"
)

// writeWait bounds each write so a client that stops reading is dropped
// instead of blocking every broadcast.
const writeWait = 10 * time.Second

// Hub pushes display events to browsers over websockets. Each connection
// subscribes to one session with the `session` query parameter.
type Hub struct {
	upgrader  websocket.Upgrader
	writeWait time.Duration
	mu        sync.Mutex
	clients   map[*websocket.Conn]string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeWait: writeWait,
		clients:   make(map[*websocket.Conn]string),
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	if session == "" {
		http.Error(w, "session query parameter required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = session
	h.mu.Unlock()
	log.WithField("session_id", session).Debug("Display client connected")
	go h.readPump(conn)
}

// Surface returns a display surface that broadcasts to the session's clients.
func (h *Hub) Surface(sessionID string) *EventSurface {
	return NewEventSurface(sessionID, h.Broadcast)
}

// Broadcast sends the event to every client subscribed to its session.
// Clients that fail a write are dropped.
func (h *Hub) Broadcast(event models.DisplayEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to encode display event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c, session := range h.clients {
		if session != event.SessionID {
			continue
		}
		err := c.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err == nil {
			err = c.WriteMessage(websocket.TextMessage, data)
		}
		if err != nil {
			log.WithError(err).WithField("session_id", session).Warn("Dropping display client")
			c.Close()
			delete(h.clients, c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) readPump(c *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
