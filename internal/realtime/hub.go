package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
)

const (
	// PingInterval and PongWait drive the websocket heartbeat.
	PingInterval = 30 * time.Second
	PongWait     = 60 * time.Second

	// MessageAttendanceMarked is sent for every accepted check-in or organizer mark.
	MessageAttendanceMarked = "attendance_marked"

	sendBuffer = 64
)

// Message is the websocket envelope.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Publisher forwards room messages to other API instances.
type Publisher interface {
	Publish(ctx context.Context, room string, msg Message) error
}

// Subscriber receives room messages published by any instance.
type Subscriber interface {
	Subscribe(room string, handler func(Message)) (cancel func(), err error)
}

// RoomForEvent names the room carrying the live attendance feed of an event.
func RoomForEvent(eventID string) string {
	return "event:" + eventID
}

// Hub tracks connected clients per room and delivers messages to them.
// With a Publisher and Subscriber configured, delivery goes through the broker
// so every subscribed instance, this one included, broadcasts each message once.
type Hub struct {
	rooms  map[string]map[string]*Client
	subs   map[string]func()
	mu     sync.RWMutex
	pub    Publisher
	sub    Subscriber
	logger *zap.Logger
}

// NewHub creates a hub. pub and sub may be nil for single-instance deployments.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pub == nil || sub == nil {
		pub, sub = nil, nil
	}
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		subs:   make(map[string]func()),
		pub:    pub,
		sub:    sub,
		logger: logger,
	}
}

// Register adds a client to its room, subscribing to the broker for the first one.
// The broker round-trip happens outside the hub lock.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.rooms[c.Room] == nil
	if first {
		h.rooms[c.Room] = make(map[string]*Client)
	}
	h.rooms[c.Room][c.ID] = c
	h.mu.Unlock()

	if first && h.sub != nil {
		h.subscribe(c.Room)
	}
	h.logger.Debug("realtime client joined", zap.String("room", c.Room), zap.String("client_id", c.ID), zap.String("user_id", c.UserID))
}

func (h *Hub) subscribe(room string) {
	cancel, err := h.sub.Subscribe(room, func(msg Message) {
		h.Broadcast(room, msg)
	})
	if err != nil {
		h.logger.Warn("realtime subscribe failed", zap.String("room", room), zap.Error(err))
		return
	}
	h.mu.Lock()
	// the room emptied, or was recreated and subscribed again, while we waited
	_, live := h.rooms[room]
	keep := live && h.subs[room] == nil
	if keep {
		h.subs[room] = cancel
	}
	h.mu.Unlock()
	if !keep {
		cancel()
	}
}

func (h *Hub) subscribed(room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subs[room] != nil
}

// Unregister removes a client and closes its send channel. The broker subscription ends with the last client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[c.Room]
	if !ok {
		return
	}
	if _, ok := clients[c.ID]; !ok {
		return
	}
	delete(clients, c.ID)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
		if cancel, ok := h.subs[c.Room]; ok {
			cancel()
			delete(h.subs, c.Room)
		}
	}
	h.logger.Debug("realtime client left", zap.String("room", c.Room), zap.String("client_id", c.ID))
}

// RoomSize returns the number of local clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast delivers msg to local clients only. Slow clients drop messages.
func (h *Hub) Broadcast(room string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("realtime client buffer full", zap.String("room", room), zap.String("client_id", c.ID))
		}
	}
}

// Publish sends msg to a room on every instance. Local clients are served directly when
// the broker fails or this instance holds no subscription for the room.
func (h *Hub) Publish(ctx context.Context, room string, msg Message) {
	if h.pub == nil {
		h.Broadcast(room, msg)
		return
	}
	if err := h.pub.Publish(ctx, room, msg); err != nil {
		h.logger.Warn("realtime publish failed", zap.String("room", room), zap.Error(err))
		h.Broadcast(room, msg)
		return
	}
	if !h.subscribed(room) {
		h.Broadcast(room, msg)
	}
}

// PublishAttendance pushes an accepted check-in to the event's live feed.
func (h *Hub) PublishAttendance(ctx context.Context, evt models.AttendanceEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("realtime encode failed", zap.Error(err))
		return
	}
	h.Publish(ctx, RoomForEvent(evt.EventID), Message{Type: MessageAttendanceMarked, Data: data})
}

// Close drops every broker subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, cancel := range h.subs {
		cancel()
		delete(h.subs, room)
	}
}
