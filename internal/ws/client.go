package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one connected websocket peer. send carries outgoing frames and is
// never closed; done is closed by the hub loop when the client is dropped.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// ServeWS upgrades the request and registers the new client with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Errorw("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

type clientMessage struct {
	Event string `json:"event"`
}

// readPump consumes client messages. The only recognized message is
// request_users, answered with a one-shot snapshot on this client's channel.
func (c *Client) readPump() {
	defer func() {
		c.hub.dropClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warnw("websocket read failed", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Log.Warnw("unreadable websocket message", "error", err)
			continue
		}

		if msg.Event == models.EventRequestUsers {
			c.sendSnapshot()
		}
	}
}

// sendSnapshot lists the current collection and queues a users_list event for
// this client only. Fetch failures become an error event for this client and
// never disturb the hub loop.
func (c *Client) sendSnapshot() {
	users, err := c.hub.lister.List(context.Background())
	if err != nil {
		logger.Log.Errorw("failed to fetch users for snapshot", "error", err)
		c.enqueue(models.Event{Event: models.EventError, Data: models.ErrorPayload{Message: "Failed to fetch users"}})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.enqueue(models.Event{Event: models.EventUsersList, Data: users})
}

func (c *Client) enqueue(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal event", "event", event.Event, "error", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		logger.Log.Warnw("send buffer full, event dropped", "event", event.Event)
	}
}

// writePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
