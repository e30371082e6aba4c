// Package mq provides the message queue producer used to publish game
// events for downstream consumers (analytics, notification fan-out).
package mq

import (
	"context"
	"time"
)

// Producer publishes messages to a topic. The Kafka implementation is the
// only one in tree; the interface keeps the event publisher testable.
type Producer interface {
	// Publish publishes a message to the specified topic
	Publish(ctx context.Context, topic string, message *Message) error

	// Ping verifies the connection is alive
	Ping(ctx context.Context) error

	// Close closes the producer
	Close() error
}

// Message represents a message on the queue.
type Message struct {
	// ID is the unique identifier for the message, used as the partition key
	ID string `json:"id"`

	// Body is the message payload
	Body []byte `json:"body"`

	// Headers contains metadata about the message
	Headers map[string]string `json:"headers"`

	// Timestamp is when the message was created
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a new message with the given body.
func NewMessage(body []byte) *Message {
	return &Message{
		Body:      body,
		Headers:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// SetHeader sets a header value.
func (m *Message) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
}
