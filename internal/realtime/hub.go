// Package realtime pushes room events to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"testroyale/pkg/utils/logger"
)

// Message is the wire envelope for every event pushed to clients.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub fans room events out to every websocket connection subscribed to the
// room. Delivery is best-effort: a failed write drops the connection.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]struct{})}
}

// Add subscribes a connection to a room's events.
func (h *Hub) Add(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[*websocket.Conn]struct{})
	}
	h.rooms[roomCode][conn] = struct{}{}
	logger.Debug(context.Background(), "ws client connected",
		zap.String("room_code", roomCode),
		zap.Int("room_clients", len(h.rooms[roomCode])),
	)
}

// Remove unsubscribes and closes a connection.
func (h *Hub) Remove(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.rooms, roomCode)
	}
}

// Publish broadcasts an event to every client of the room. Fire-and-forget:
// errors drop the offending connection and are never returned.
func (h *Hub) Publish(roomCode, event string, payload interface{}) {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		logger.Warn(context.Background(), "ws marshal failed",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[roomCode] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.rooms[roomCode], conn)
		}
	}
}

// ClientCount returns the number of connections subscribed to a room.
func (h *Hub) ClientCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
