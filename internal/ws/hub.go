// Package ws holds the WebSocket connection registry and the broadcast path.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is the envelope written to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// Hub is an in-memory registry of live connections keyed by user id.
// A user may hold several connections (multiple tabs). Sends happen
// synchronously in handler order; there is no replay for offline users.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*conn]struct{}

	upgrader websocket.Upgrader
}

type conn struct {
	userID string
	sock   *websocket.Conn
	// writeMu serializes writes; gorilla connections allow one writer at a time.
	writeMu sync.Mutex
}

func NewHub(checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		conns: make(map[string]map[*conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve upgrades the request and blocks reading the connection until the
// client disconnects. Callers authenticate before calling Serve.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade for %s: %v", userID, err)
		return
	}

	c := &conn{userID: userID, sock: sock}
	h.register(c)
	defer h.unregister(c)

	done := make(chan struct{})
	go h.pingLoop(c, done)
	defer close(done)

	sock.SetReadLimit(4096)
	_ = sock.SetReadDeadline(time.Now().Add(pongWait))
	sock.SetPongHandler(func(string) error {
		return sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Inbound frames are not commands; the read loop exists to notice
	// disconnects and service control frames.
	for {
		if _, _, err := sock.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) pingLoop(c *conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.sock.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				_ = c.sock.Close()
				return
			}
		}
	}
}

func (h *Hub) register(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[c.userID]
	if !ok {
		set = make(map[*conn]struct{})
		h.conns[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
	_ = c.sock.Close()
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// SendToUser delivers the event to every connection of one user.
// A failed write closes and drops the connection; delivery is best effort.
func (h *Hub) SendToUser(userID string, event Event) {
	h.SendToUsers([]string{userID}, event)
}

// SendToUsers delivers the event to each listed user in handler order.
func (h *Hub) SendToUsers(userIDs []string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal event %s: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0)
	for _, userID := range userIDs {
		for c := range h.conns[userID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var dead []*conn
	for _, c := range targets {
		c.writeMu.Lock()
		_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.sock.WriteMessage(websocket.TextMessage, data)
		c.writeMu.Unlock()
		if err != nil {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.unregister(c)
	}
}

// ConnectionCount reports the number of live connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.conns {
		total += len(set)
	}
	return total
}
