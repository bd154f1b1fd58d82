package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"practicecoach/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgSessionStarted   MessageType = MessageType(model.EventSessionStarted)
	MsgQuestionAnswered MessageType = MessageType(model.EventQuestionAnswered)
	MsgCoachingViewed   MessageType = MessageType(model.EventCoachingViewed)
)

// messageType maps an analytics event to the message clients receive.
func messageType(t model.EventType) (MessageType, bool) {
	switch t {
	case model.EventSessionStarted:
		return MsgSessionStarted, true
	case model.EventQuestionAnswered:
		return MsgQuestionAnswered, true
	case model.EventCoachingViewed:
		return MsgCoachingViewed, true
	}
	return "", false
}

// Message is the WebSocket envelope format
type Message struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// Hub fans session events out to the WebSocket connections watching them
type Hub struct {
	// sessionID -> connections
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	quit       chan struct{}

	logger *zap.Logger
}

// Connection is one subscriber of a session
type Connection struct {
	SessionID string
	UserID    string // Empty for guests
	Send      chan []byte
}

// BroadcastMessage is a message for every subscriber of a session
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		quit:       make(chan struct{}),
		logger:     logger.With(zap.String("component", "ws_hub")),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("subscriber connected", zap.String("session_id", conn.SessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.conns[conn.SessionID]; ok {
				if _, ok := subs[conn]; ok {
					delete(subs, conn)
					close(conn.Send)
					if len(subs) == 0 {
						delete(h.conns, conn.SessionID)
					}
					h.logger.Debug("subscriber disconnected", zap.String("session_id", conn.SessionID))
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Warn("failed to encode message", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.quit:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// Subscribers returns how many connections watch sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// Close stops the run loop. Connections are left to their pumps.
func (h *Hub) Close() {
	close(h.quit)
}

// Name implements events.Sink.
func (h *Hub) Name() string { return "websocket" }

// Deliver implements events.Sink: the event is broadcast to the subscribers
// of its session. Unknown event types and sessions nobody watches are skipped.
func (h *Hub) Deliver(ctx context.Context, event *model.Event) error {
	typ, ok := messageType(event.Type)
	if !ok {
		h.logger.Debug("event has no websocket message", zap.String("type", string(event.Type)))
		return nil
	}
	if h.Subscribers(event.SessionID) == 0 {
		return nil
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	msg := &BroadcastMessage{
		SessionID: event.SessionID,
		Message: &Message{
			Type:      typ,
			SessionID: event.SessionID,
			Payload:   payload,
		},
	}

	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
