package relay

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"schoolchat/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocketClient implements Client over a gorilla/websocket connection.
// The socket is push-oriented: outbound frames carry events, and any
// inbound frame just counts as a heartbeat.
type WebSocketClient struct {
	userID string
	conn   *websocket.Conn
	hub    *Hub
	send   chan models.Event

	// heartbeat is invoked for every inbound frame and pong.
	heartbeat func(userID string)

	closed chan struct{}
}

// NewWebSocketClient wraps an upgraded connection.
func NewWebSocketClient(userID string, conn *websocket.Conn, hub *Hub, heartbeat func(userID string)) *WebSocketClient {
	return &WebSocketClient{
		userID:    userID,
		conn:      conn,
		hub:       hub,
		send:      make(chan models.Event, 64),
		heartbeat: heartbeat,
		closed:    make(chan struct{}),
	}
}

func (c *WebSocketClient) UserID() string { return c.userID }

// Deliver queues an event for the write pump.
func (c *WebSocketClient) Deliver(ev models.Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Safe to call more than once via the hub.
func (c *WebSocketClient) Close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
		c.conn.Close()
	}
}

// Run starts both pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.UnregisterCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.heartbeat(c.userID)
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading from relay client %s: %v", c.userID, err)
			}
			return
		}
		c.heartbeat(c.userID)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
