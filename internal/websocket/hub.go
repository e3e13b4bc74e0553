package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"breadvan-backend/internal/models"
)

// target selects which connected clients receive a message
type target struct {
	client *Client
	userID string
	role   string
	areaID string
}

func (t target) matches(c *Client) bool {
	switch {
	case t.client != nil:
		return c == t.client
	case t.userID != "":
		return c.UserID == t.userID
	case t.areaID != "":
		// Admins watch every area
		return c.AreaID == t.areaID || c.UserRole == models.RoleAdmin
	default:
		return c.UserRole == t.role
	}
}

// Message is a payload queued for delivery to the clients matching to
type Message struct {
	to   target
	Data interface{}
}

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main loop; it returns after Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.UserID]; ok && old != client {
				// A second tab replaces the first connection
				close(old.send)
			}
			h.clients[client.UserID] = client
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] %s connected (%s, area %q), %d clients", client.UserID, client.UserRole, client.AreaID, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] %s disconnected, %d clients remaining", client.UserID, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.quit:
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run
func (h *Hub) Stop() {
	close(h.quit)
}

// Register adds c to the hub. It reports false once the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes c; it is a no-op after Stop
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) deliver(message *Message) {
	data, err := json.Marshal(message.Data)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		if !message.to.matches(client) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client buffer full, disconnect
			close(client.send)
			delete(h.clients, id)
			log.Printf("⚠️  Client buffer full, disconnecting: %s", id)
		}
	}
}

func (h *Hub) enqueue(to target, data interface{}) {
	select {
	case h.broadcast <- &Message{to: to, Data: data}:
	case <-h.quit:
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	h.enqueue(target{userID: userID}, data)
}

// BroadcastToRole sends a message to all users with a specific role
func (h *Hub) BroadcastToRole(role string, data interface{}) {
	h.enqueue(target{role: role}, data)
}

// BroadcastToArea sends a message to users homed in areaID and to admins
func (h *Hub) BroadcastToArea(areaID string, data interface{}) {
	h.enqueue(target{areaID: areaID}, data)
}

// NotificationMessage is pushed to a connected resident for every new inbox entry
type NotificationMessage struct {
	Type string               `json:"type"`
	Data *models.Notification `json:"data"`
}

// Notify pushes n to the resident when they are connected
func (h *Hub) Notify(_ context.Context, residentID string, n *models.Notification) {
	if !h.IsUserConnected(residentID) {
		return
	}
	h.BroadcastToUser(residentID, NotificationMessage{Type: "notification", Data: n})
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
