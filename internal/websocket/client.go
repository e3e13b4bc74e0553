package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048

	// Time allowed to process one location_update
	updateTimeout = 10 * time.Second
)

// LocationTracker is what the socket needs to ingest driver GPS fixes
type LocationTracker interface {
	UpdateLocation(ctx context.Context, driverID string, u models.LocationUpdate) (*services.ProximityResult, error)
	MarkDisconnected(ctx context.Context, driverID string) error
}

// Client represents a WebSocket client connection
type Client struct {
	UserID   string
	UserRole string
	AreaID   string
	conn     *websocket.Conn
	hub      *Hub
	tracker  LocationTracker
	send     chan []byte
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func NewClient(userID, userRole, areaID string, conn *websocket.Conn, hub *Hub, tracker LocationTracker) *Client {
	return &Client{
		UserID:   userID,
		UserRole: userRole,
		AreaID:   areaID,
		conn:     conn,
		hub:      hub,
		tracker:  tracker,
		send:     make(chan []byte, 256),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.markAsDisconnected()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("Invalid message format from %s: %v", c.UserID, err)
		return
	}

	switch msg.Type {
	case "ping":
		c.reply(outgoingMessage{Type: "pong", Timestamp: time.Now().Format(time.RFC3339)})
	case "location_update":
		c.handleLocationUpdate(msg.Data)
	default:
		c.reply(outgoingMessage{Type: "error", Error: "Unknown message type."})
	}
}

// reply queues a message for this connection only
func (c *Client) reply(m outgoingMessage) {
	c.hub.enqueue(target{client: c}, m)
}

// handleLocationUpdate feeds a driver's GPS fix to the tracker, which stores
// it, broadcasts it to the area and raises arrival alerts
func (c *Client) handleLocationUpdate(raw json.RawMessage) {
	if c.UserRole != models.RoleDriver || c.tracker == nil {
		c.reply(outgoingMessage{Type: "error", Error: "Only drivers can send location updates."})
		return
	}

	var update models.LocationUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		c.reply(outgoingMessage{Type: "error", Error: "Invalid location update."})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	result, err := c.tracker.UpdateLocation(ctx, c.UserID, update)
	if err != nil {
		log.Printf("❌ Location update from %s rejected: %v", c.UserID, err)
		msg := "Failed to update location."
		if services.KindOf(err) != "" {
			msg = err.Error()
		}
		c.reply(outgoingMessage{Type: "error", Error: msg})
		return
	}
	c.reply(outgoingMessage{Type: "location_ack", Data: result})
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One JSON document per frame
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

// markAsDisconnected keeps a driver's last known position but flags it stale
func (c *Client) markAsDisconnected() {
	if c.UserRole != models.RoleDriver || c.tracker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	if err := c.tracker.MarkDisconnected(ctx, c.UserID); err != nil {
		log.Printf("❌ Error marking driver as disconnected: %v", err)
	}
}
