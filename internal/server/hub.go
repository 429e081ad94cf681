package server

import (
	"context"

	"go.uber.org/zap"
)

type subscription struct {
	client *Client
	gameID string
}

type roomMessage struct {
	gameID  string
	payload []byte
}

type clientMessage struct {
	client  *Client
	payload []byte
}

// Hub tracks connected clients and the game room each one follows. All
// membership changes and every write to a client's send channel happen
// on the hub goroutine.
type Hub struct {
	logger *zap.Logger

	clients map[*Client]string
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	join       chan subscription
	broadcast  chan roomMessage
	direct     chan clientMessage
	done       chan struct{}
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]string),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan subscription),
		broadcast:  make(chan roomMessage),
		direct:     make(chan clientMessage),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then closes every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = ""
			h.debug("client registered", c)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.debug("client unregistered", c)
			}

		case s := <-h.join:
			if _, ok := h.clients[s.client]; !ok {
				continue
			}
			h.leave(s.client)
			h.clients[s.client] = s.gameID
			room, ok := h.rooms[s.gameID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[s.gameID] = room
			}
			room[s.client] = true

		case m := <-h.broadcast:
			for c := range h.rooms[m.gameID] {
				h.deliver(c, m.payload)
			}

		case m := <-h.direct:
			if _, ok := h.clients[m.client]; ok {
				h.deliver(m.client, m.payload)
			}
		}
	}
}

func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		// Slow consumer.
		h.debug("dropping slow client", c)
		h.drop(c)
	}
}

func (h *Hub) leave(c *Client) {
	gameID := h.clients[c]
	if gameID == "" {
		return
	}
	room := h.rooms[gameID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

func (h *Hub) drop(c *Client) {
	h.leave(c)
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) debug(msg string, c *Client) {
	if h.logger != nil {
		h.logger.Debug(msg, zap.String("client_id", c.id), zap.String("remote_addr", c.remoteAddr))
	}
}

// Join moves c into the room of gameID.
func (h *Hub) Join(c *Client, gameID string) {
	select {
	case h.join <- subscription{client: c, gameID: gameID}:
	case <-h.done:
	}
}

// Publish sends payload to every client following gameID.
func (h *Hub) Publish(gameID string, payload []byte) {
	select {
	case h.broadcast <- roomMessage{gameID: gameID, payload: payload}:
	case <-h.done:
	}
}

// Send queues payload for a single client.
func (h *Hub) Send(c *Client, payload []byte) {
	select {
	case h.direct <- clientMessage{client: c, payload: payload}:
	case <-h.done:
	}
}

// Register adds c to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes c and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
