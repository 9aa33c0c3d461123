/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the core of the real-time communication layer.

    It maintains a registry of all active clients and manages the broadcast
    channel. The session's publish cadence and the action handlers hand events
    to Publish; the Hub writes them to the sockets of every connected client.

    Architecture:
    - Hub: One per process, run by main.
    - Client: Represents one browser connection, identified by a UUID.
    - ServeWs: The HTTP handler that upgrades a standard GET request to a WebSocket.
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/everforgeworks/tap-the-cap/internal/logger"
)

// Event types carried in Message.Type.
const (
	EventStatePulse     = "state_pulse"
	EventPurchase       = "purchase"
	EventReset          = "reset"
	EventOfflineEarning = "offline_earnings"
	EventTap            = "tap"

	SenderSystem = "system"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Message defines the standard JSON envelope for all real-time communication.
type Message struct {
	Type    string      `json:"type"`    // Event Type (e.g., "state_pulse", "purchase")
	Payload interface{} `json:"payload"` // The actual data
	Sender  string      `json:"sender"`  // "system" or the client ID that caused the event
}

// inbound is what clients send; only the type is interpreted.
type inbound struct {
	Type string `json:"type"`
}

// Client represents a single connected browser tab.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // Buffered channel for outbound messages

	mu     sync.Mutex
	closed bool // send is closed; guarded by mu
}

// close closes the outbound channel once. Only the hub loop calls it.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	// OnConnect runs in the client's goroutine right after registration.
	OnConnect func(c *Client)
	// OnMessage receives each decoded inbound message type.
	OnMessage func(c *Client, msgType string)

	log *zap.Logger
}

// NewHub creates a new Hub instance. Run must be started before clients connect.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        logger.OrNop(log),
	}
}

// Run is the main event loop for the Hub. It returns when ctx is cancelled,
// closing every client's outbound channel.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			return nil

		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("websocket client connected", zap.String("client_id", client.ID), zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.log.Info("websocket client disconnected", zap.String("client_id", client.ID), zap.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the client hung or disconnected
					client.close()
					delete(h.clients, client)
					h.log.Warn("dropping slow websocket client", zap.String("client_id", client.ID))
				}
			}
		}
	}
}

// Publish broadcasts a system event. It never blocks the caller: when the
// broadcast queue is full the event is dropped.
func (h *Hub) Publish(eventType string, payload interface{}) {
	h.PublishFrom(SenderSystem, eventType, payload)
}

// PublishFrom broadcasts an event caused by sender.
func (h *Hub) PublishFrom(sender, eventType string, payload interface{}) {
	data, err := encode(sender, eventType, payload)
	if err != nil {
		h.log.Error("encode event failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Debug("broadcast queue full, event dropped", zap.String("type", eventType))
	}
}

// Send queues a message for one client. It is a no-op once the hub has
// dropped the client or shut down.
func (c *Client) Send(eventType string, payload interface{}) {
	data, err := encode(SenderSystem, eventType, payload)
	if err != nil {
		c.hub.log.Error("encode event failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func encode(sender, eventType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: eventType, Payload: payload, Sender: sender})
}

// upgrader configures the WebSocket handshake.
// CheckOrigin allows any host; CORS is permissive like the REST endpoints.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the HTTP connection and starts the client's pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// 1. Wrap and register
	client := &Client{ID: uuid.NewString(), hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// 2. Greet before the pumps start so the greeting is the first frame
	if h.OnConnect != nil {
		h.OnConnect(client)
	}

	// 3. Pumps in their own goroutines so one slow client doesn't block the server
	go client.writePump()
	go client.readPump()
}

// readPump reads client messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read error", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.log.Debug("ignoring malformed client message", zap.String("client_id", c.ID), zap.Error(err))
			continue
		}
		if c.hub.OnMessage != nil {
			c.hub.OnMessage(c, msg.Type)
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
