// Package events publishes query lifecycle events to the message queue so
// that other services (dashboards, audit trails) can follow what users ask.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/querylens/querylens/internal/codec"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/queue"
)

// Type names an event.
type Type string

const (
	QuerySucceeded         Type = "query.succeeded"
	QueryFailed            Type = "query.failed"
	RecommendationApplied  Type = "recommendation.applied"
	RecommendationRejected Type = "recommendation.rejected"
)

// Event is one entry on the events subject.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	SessionID     string    `json:"sessionId"`
	Question      string    `json:"question,omitempty"`
	Collection    string    `json:"collection,omitempty"`
	Records       int       `json:"records"`
	Shape         string    `json:"shape,omitempty"`
	Visualization string    `json:"visualization,omitempty"`
	ExecutionTime *float64  `json:"executionTime,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// QueuePublisher frames events with the codec and publishes them keyed by
// session, so per-session ordering holds on partitioned backends.
type QueuePublisher struct {
	pub     queue.Publisher
	subject string
	codec   *codec.Codec
	logger  *logging.Logger
}

// NewQueuePublisher creates a publisher on subject.
func NewQueuePublisher(pub queue.Publisher, subject string, logger *logging.Logger) *QueuePublisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &QueuePublisher{
		pub:     pub,
		subject: subject,
		codec:   codec.New(),
		logger:  logger,
	}
}

// Publish assigns an ID and timestamp when missing and publishes the event.
func (p *QueuePublisher) Publish(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	data, err := p.codec.Encode(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", ev.Type, err)
	}
	if err := p.pub.Publish(ctx, queue.Message{Subject: p.subject, Key: ev.SessionID, Data: data}); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", ev.Type, err)
	}

	p.logger.Debug("Published event",
		"event_id", ev.ID,
		"type", ev.Type,
		"session_id", ev.SessionID,
		"bytes", len(data))
	return nil
}

// Decode reads an event frame produced by QueuePublisher.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := codec.Decode(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return ev, nil
}

// Nop drops every event. It is used when the queue is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
