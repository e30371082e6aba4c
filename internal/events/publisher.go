// Package events publishes game lifecycle events to the message queue so
// out-of-process consumers (analytics, history, notifications) can follow
// games without holding a websocket.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"testroyale/internal/common/mq"
	"testroyale/pkg/utils/logger"
)

const defaultPublishTimeout = 5 * time.Second

// GameEvent is the envelope written to the events topic.
type GameEvent struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	RoomCode  string      `json:"roomCode"`
	Payload   interface{} `json:"payload,omitempty"`
	CreatedAt int64       `json:"createdAt"`
}

// GameEventPublisher writes game events to a queue topic. Publishing is
// asynchronous and best-effort: game progress never blocks on the broker.
type GameEventPublisher struct {
	producer mq.Producer
	topic    string
}

// NewGameEventPublisher creates a publisher for the given topic.
func NewGameEventPublisher(producer mq.Producer, topic string) *GameEventPublisher {
	return &GameEventPublisher{producer: producer, topic: topic}
}

// Publish serializes the event and hands it to the broker in the background.
func (p *GameEventPublisher) Publish(roomCode, event string, payload interface{}) {
	if p == nil || p.producer == nil || p.topic == "" {
		return
	}

	ev := GameEvent{
		ID:        uuid.NewString(),
		Event:     event,
		RoomCode:  roomCode,
		Payload:   payload,
		CreatedAt: time.Now().Unix(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		logger.Warn(context.Background(), "marshal game event failed",
			zap.String("event", event), zap.Error(err))
		return
	}
	message := mq.NewMessage(body)
	message.ID = ev.ID
	message.SetHeader("event", event)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
		defer cancel()
		if err := p.producer.Publish(ctx, p.topic, message); err != nil {
			logger.Warn(ctx, "publish game event failed",
				zap.String("event", event),
				zap.String("room_code", roomCode),
				zap.Error(err),
			)
		}
	}()
}
