package ws

import (
	"context"
	"encoding/json"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

// UserLister defines the read operation the relay needs for snapshots.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

const broadcastBufferSize = 256

// Hub relays store change notifications to every connected websocket client.
// It holds only the set of connected clients, never record data: snapshots
// are fetched from the store on demand, per requesting client.
type Hub struct {
	lister UserLister

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.Event
	done       chan struct{}
}

// NewHub creates a hub reading snapshots through lister.
func NewHub(lister UserLister) *Hub {
	return &Hub{
		lister:     lister,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.Event, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

// Run owns all hub state. It loops until ctx is cancelled, then signals every
// client to close. A client's send channel is never closed: the read pump
// keeps send rights for snapshots, so closure is signalled through the
// client's done channel instead. Only this loop closes done, and only once
// per client, since a client leaves the map the moment it is dropped.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.done)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			logger.Log.Infow("websocket client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.done)
				logger.Log.Infow("websocket client disconnected", "clients", len(h.clients))
			}

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				logger.Log.Errorw("failed to marshal broadcast event", "event", event.Event, "error", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// A full buffer means a stuck client; drop it rather
					// than block everyone else.
					delete(h.clients, client)
					close(client.done)
					logger.Log.Warnw("dropped slow websocket client", "clients", len(h.clients))
				}
			}
		}
	}
}

// dropClient hands a disconnecting client to the hub loop. When the loop has
// already stopped there is nobody left to take it, so give up instead of
// blocking the read pump forever.
func (h *Hub) dropClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// OnUserAdded is the store feed callback for created records.
func (h *Hub) OnUserAdded(user models.User) {
	h.publish(models.Event{Event: models.EventUserCreated, Data: user})
}

// OnUserChanged is the store feed callback for updated records.
func (h *Hub) OnUserChanged(user models.User) {
	h.publish(models.Event{Event: models.EventUserUpdated, Data: user})
}

// OnUserRemoved is the store feed callback for deleted records.
func (h *Hub) OnUserRemoved(user models.User) {
	h.publish(models.Event{Event: models.EventUserDeleted, Data: user})
}

// publish hands an event to the hub loop without ever blocking the caller:
// feed callbacks run on the store subscription and must not stall.
func (h *Hub) publish(event models.Event) {
	select {
	case h.broadcast <- event:
	default:
		logger.Log.Warnw("broadcast buffer full, event dropped", "event", event.Event)
	}
}
