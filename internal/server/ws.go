package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/focusguard/internal/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Message is one live-feed frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Live message types.
const (
	TypeSnapshot   = "snapshot"
	TypeTransition = "transition"
	TypeCommand    = "command"
	TypeNotice     = "notice"
	TypeSession    = "session"
	TypePaused     = "paused"
)

// Control receives pause and resume requests from live clients.
type Control interface {
	SetPaused(paused bool)
	Paused() bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans published messages out to websocket clients. The most recent
// snapshot is replayed to clients as they connect.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	snapshot []byte
	control  Control
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// SetControl sets the target of pause and resume requests.
func (h *Hub) SetControl(c Control) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.control = c
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends a message to every client. Clients whose buffer is full
// miss the message.
func (h *Hub) Publish(msgType string, data any) {
	msg, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		log.Warn("live message not encodable", "type", msgType, "error", err)
		return
	}

	h.mu.Lock()
	if msgType == TypeSnapshot {
		h.snapshot = msg
	}
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ServeHTTP upgrades the connection and serves it until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.snapshot != nil {
		c.send <- h.snapshot
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
}

type controlRequest struct {
	Type string `json:"type"`
}

func (h *Hub) readLoop(c *client) {
	defer c.conn.Close()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req controlRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			return
		}

		h.mu.RLock()
		ctl := h.control
		h.mu.RUnlock()
		if ctl == nil {
			continue
		}

		switch req.Type {
		case "pause":
			ctl.SetPaused(true)
		case "resume":
			ctl.SetPaused(false)
		case "toggle":
			ctl.SetPaused(!ctl.Paused())
		default:
			continue
		}
		h.Publish(TypePaused, ctl.Paused())
	}
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
