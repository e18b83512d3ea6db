package ws

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Owner feed message types
const (
	MsgSubscribed       MessageType = "subscribed"
	MsgResponseRecorded MessageType = "response_recorded"
	MsgError            MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans survey events out to the owners watching each survey
type Hub struct {
	// slug -> connections
	owners map[string]map[*Connection]struct{}

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	quit       chan struct{}

	log zerolog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	Slug    string
	OwnerID string
	Send    chan []byte
	Hub     *Hub
}

// BroadcastMessage is a message for every owner connection of a survey
type BroadcastMessage struct {
	Slug    string
	Message *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		owners:     make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		quit:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			if h.owners[conn.Slug] == nil {
				h.owners[conn.Slug] = make(map[*Connection]struct{})
			}
			h.owners[conn.Slug][conn] = struct{}{}
			h.log.Info().Str("slug", conn.Slug).Str("owner_id", conn.OwnerID).Int("watchers", len(h.owners[conn.Slug])).Msg("owner connected")

			payload, _ := json.Marshal(map[string]string{"slug": conn.Slug})
			send(conn, &Message{Type: MsgSubscribed, Payload: payload})

		case conn := <-h.unregister:
			conns, ok := h.owners[conn.Slug]
			if !ok {
				continue
			}
			if _, ok := conns[conn]; !ok {
				continue
			}
			delete(conns, conn)
			close(conn.Send)
			if len(conns) == 0 {
				delete(h.owners, conn.Slug)
			}
			h.log.Info().Str("slug", conn.Slug).Str("owner_id", conn.OwnerID).Msg("owner disconnected")

		case msg := <-h.broadcast:
			for conn := range h.owners[msg.Slug] {
				send(conn, msg.Message)
			}

		case <-h.quit:
			for slug, conns := range h.owners {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.owners, slug)
			}
			return
		}
	}
}

// send drops the message when the connection's buffer is full
func send(conn *Connection, msg *Message) {
	data, _ := json.Marshal(msg)
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.quit:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// Close stops the hub and closes every connection's send channel
func (h *Hub) Close() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

// BroadcastToOwners sends an event to everyone watching the survey (implements service.Broadcaster)
func (h *Hub) BroadcastToOwners(slug string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("marshal broadcast payload")
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		Slug:    slug,
		Message: &Message{Type: MessageType(msgType), Payload: data},
	}:
	case <-h.quit:
	}
}
