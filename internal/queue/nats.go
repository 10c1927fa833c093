package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig represents NATS JetStream configuration
type NATSConfig struct {
	URL          string // e.g. nats://localhost:4222
	Username     string // Optional authentication
	Password     string // Optional authentication
	StreamPrefix string // JetStream stream name prefix (default: "querylens")
}

type natsSubscription struct {
	sub    *nats.Subscription
	cancel context.CancelFunc
}

// NATSQueue implements Queue interface using NATS JetStream
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	streamPrefix  string
	ownsConn      bool
	subscriptions map[string]natsSubscription
	mu            sync.Mutex

	streams   map[string]struct{}
	streamsMu sync.Mutex
}

// newNATSQueue connects to NATS and enables JetStream
func newNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	opts := []nats.Option{nats.Name("querylens")}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, cfg.StreamPrefix)
	if err != nil {
		conn.Close()
		return nil, err
	}
	q.ownsConn = true
	return q, nil
}

// newNATSQueueWithConn wraps an existing connection; Close leaves it open
func newNATSQueueWithConn(conn *nats.Conn, streamPrefix string) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if streamPrefix == "" {
		streamPrefix = "querylens"
	}

	return &NATSQueue{
		conn:          conn,
		js:            js,
		streamPrefix:  streamPrefix,
		subscriptions: make(map[string]natsSubscription),
		streams:       make(map[string]struct{}),
	}, nil
}

// ensureStream creates the subject's stream when it does not exist yet
func (q *NATSQueue) ensureStream(subject string) error {
	q.streamsMu.Lock()
	defer q.streamsMu.Unlock()

	if _, ok := q.streams[subject]; ok {
		return nil
	}
	name := q.streamPrefix + "-" + sanitizeName(subject)
	if _, err := q.js.StreamInfo(name); err != nil {
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
			MaxAge:   24 * time.Hour,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}
	q.streams[subject] = struct{}{}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSQueue) Publish(ctx context.Context, msg Message) error {
	if err := q.ensureStream(msg.Subject); err != nil {
		return err
	}

	m := nats.NewMsg(msg.Subject)
	m.Data = msg.Data
	if msg.Key != "" {
		m.Header.Set(keyField, msg.Key)
	}

	// Request-style publishes need a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if _, err := q.js.PublishMsg(m, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", msg.Subject, err)
	}
	return nil
}

// Subscribe subscribes with a durable, manually acked JetStream consumer that
// starts at new messages.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	if err := q.ensureStream(subject); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := q.js.Subscribe(subject, func(m *nats.Msg) {
		msg := Message{Subject: m.Subject, Data: m.Data}
		if m.Header != nil {
			msg.Key = m.Header.Get(keyField)
		}
		if err := handler(ctx, msg); err != nil {
			// NAK so JetStream redelivers
			_ = m.Nak()
			return
		}
		_ = m.Ack()
	},
		nats.Durable("consumer-"+sanitizeName(subject)),
		nats.ManualAck(),
		nats.MaxAckPending(100),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = natsSubscription{sub: sub, cancel: cancel}
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	s.cancel()
	delete(q.subscriptions, subject)
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close unsubscribes everything and closes the connection if this queue
// opened it
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, s := range q.subscriptions {
		s.cancel()
		_ = s.sub.Unsubscribe()
		delete(q.subscriptions, subject)
	}

	if q.ownsConn {
		q.conn.Close()
	}
	return nil
}

// sanitizeName maps a subject to a valid stream or consumer name: only
// A-Z, a-z, 0-9, dash and underscore survive.
func sanitizeName(subject string) string {
	result := make([]byte, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			result[i] = c
		default:
			result[i] = '_'
		}
	}
	return string(result)
}
