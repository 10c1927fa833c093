// Package queue carries query events and queued visualization
// recommendations over NATS JetStream, Redis Streams, Kafka or an in-memory
// channel.
package queue

import "context"

// Message is one queued payload. Key is an optional routing key: the session
// ID for query events, the correlation ID for recommendation traffic. Kafka
// uses it as the partition key; the other backends carry it alongside Data.
type Message struct {
	Subject string
	Key     string
	Data    []byte
}

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to msg.Subject
	Publish(ctx context.Context, msg Message) error

	// Close closes the connection
	Close() error
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with a handler
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages. A non-nil error asks the backend
// to redeliver where it supports that.
type MessageHandler func(ctx context.Context, msg Message) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}

// keyField names the routing key in NATS headers and Redis stream entries
const keyField = "querylens-key"
