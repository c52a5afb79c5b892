// Package ws pushes live notification events to connected browsers over
// gorilla/websocket. Each client subscribes with the role it authenticated
// as, and the hub routes every event to the clients whose role matches the
// event's target audience.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vendora/vendora/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is one connected feed subscriber.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	role   string
}

// readPump drains the connection until it closes. Subscribers never send
// application messages; reading is only needed to process control frames.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

// EventMessage is the JSON frame pushed to subscribers.
type EventMessage struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	TargetRole string `json:"targetRole"`
	OrderID    string `json:"orderId,omitempty"`
	SentAt     string `json:"sentAt"`
}

type publish struct {
	targetRole string
	data       []byte
}

// Hub tracks active subscribers and fans events out by role.
type Hub struct {
	clients    map[*Client]bool
	events     chan publish
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a Hub. Call hub.Run() in a goroutine at startup.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		events:     make(chan publish, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub event loop. Must be run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logger.Info("ws: subscriber connected",
				"role", client.role, "total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logger.Info("ws: subscriber disconnected", "total", len(h.clients))
			}

		case ev := <-h.events:
			for client := range h.clients {
				if ev.targetRole != "" && client.role != ev.targetRole {
					continue
				}
				select {
				case client.send <- ev.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Publish queues an event for delivery to all subscribers whose role matches
// msg.TargetRole. An empty TargetRole reaches every subscriber.
func (h *Hub) Publish(msg EventMessage) {
	if msg.SentAt == "" {
		msg.SentAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("ws: encode event", "error", err)
		return
	}
	select {
	case h.events <- publish{targetRole: msg.TargetRole, data: data}:
	default:
		logger.Warn("ws: event buffer full, dropping", "type", msg.Type)
	}
}

// ClientCount returns the number of currently connected subscribers.
func (h *Hub) ClientCount() int { return len(h.clients) }

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade promotes an authenticated HTTP request to a feed subscription.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, userID, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws: upgrade failed", "error", err)
		return
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		role:   role,
	}
	hub.register <- client
	go client.writePump()
	go client.readPump()
}
