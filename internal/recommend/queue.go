package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/codec"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/queue"
)

// queueRequest travels on the request subject. Results are usually large, so
// the codec compresses most requests.
type queueRequest struct {
	CorrelationID string                 `json:"correlationId"`
	ReplyTo       string                 `json:"replyTo"`
	Question      string                 `json:"question"`
	QueryResult   *analytics.QueryResult `json:"queryResult"`
}

type queueReply struct {
	CorrelationID  string                        `json:"correlationId"`
	Recommendation *visualization.Recommendation `json:"recommendation,omitempty"`
	Error          string                        `json:"error,omitempty"`
}

// QueueRecommender publishes requests on one subject and matches replies from
// another by correlation ID.
type QueueRecommender struct {
	q              queue.Queue
	requestSubject string
	replySubject   string
	codec          *codec.Codec
	logger         *logging.Logger

	mu      sync.Mutex
	pending map[string]chan queueReply
}

// NewQueueRecommender subscribes to the reply subject.
func NewQueueRecommender(q queue.Queue, requestSubject, replySubject string, logger *logging.Logger) (*QueueRecommender, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &QueueRecommender{
		q:              q,
		requestSubject: requestSubject,
		replySubject:   replySubject,
		codec:          codec.New(),
		logger:         logger,
		pending:        make(map[string]chan queueReply),
	}
	if err := q.Subscribe(replySubject, r.handleReply); err != nil {
		return nil, fmt.Errorf("failed to subscribe to recommendation replies: %w", err)
	}
	return r, nil
}

func (r *QueueRecommender) Recommend(ctx context.Context, req Request) (*visualization.Recommendation, error) {
	id := uuid.NewString()
	ch := make(chan queueReply, 1)

	r.mu.Lock()
	r.pending[id] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	data, err := r.codec.Encode(queueRequest{
		CorrelationID: id,
		ReplyTo:       r.replySubject,
		Question:      req.Question,
		QueryResult:   req.Result,
	})
	if err != nil {
		return nil, err
	}
	if err := r.q.Publish(ctx, queue.Message{Subject: r.requestSubject, Key: id, Data: data}); err != nil {
		return nil, fmt.Errorf("failed to publish recommendation request: %w", err)
	}

	select {
	case reply := <-ch:
		if reply.Error != "" {
			return nil, errors.New(reply.Error)
		}
		if reply.Recommendation == nil {
			return nil, errors.New("empty recommendation reply")
		}
		return reply.Recommendation, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleReply routes a reply to its waiting caller. Replies nobody waits for
// (timed out, or meant for another instance) are dropped.
func (r *QueueRecommender) handleReply(_ context.Context, msg queue.Message) error {
	var reply queueReply
	if err := codec.Decode(msg.Data, &reply); err != nil {
		r.logger.Warn("Dropping malformed recommendation reply", "error", err)
		return nil
	}
	id := msg.Key
	if id == "" {
		id = reply.CorrelationID
	}

	r.mu.Lock()
	ch, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("Dropping recommendation reply without waiter", "correlation_id", id)
		return nil
	}
	ch <- reply
	return nil
}

// Pending returns the number of requests waiting for a reply.
func (r *QueueRecommender) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close stops listening for replies.
func (r *QueueRecommender) Close() error {
	return r.q.Unsubscribe(r.replySubject)
}

// Responder answers queued recommendation requests with another recommender,
// usually the HTTP one.
type Responder struct {
	q              queue.Queue
	requestSubject string
	rec            Recommender
	codec          *codec.Codec
	logger         *logging.Logger
}

// NewResponder creates a responder; call Start to begin serving.
func NewResponder(q queue.Queue, requestSubject string, rec Recommender, logger *logging.Logger) *Responder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Responder{
		q:              q,
		requestSubject: requestSubject,
		rec:            rec,
		codec:          codec.New(),
		logger:         logger,
	}
}

// Start subscribes to the request subject.
func (s *Responder) Start() error {
	if err := s.q.Subscribe(s.requestSubject, s.handle); err != nil {
		return fmt.Errorf("failed to subscribe to recommendation requests: %w", err)
	}
	s.logger.Info("Recommendation responder started", "subject", s.requestSubject)
	return nil
}

// Stop unsubscribes from the request subject.
func (s *Responder) Stop() error {
	return s.q.Unsubscribe(s.requestSubject)
}

func (s *Responder) handle(ctx context.Context, msg queue.Message) error {
	var req queueRequest
	if err := codec.Decode(msg.Data, &req); err != nil {
		s.logger.Warn("Dropping malformed recommendation request", "error", err)
		return nil
	}
	if req.ReplyTo == "" {
		s.logger.Warn("Dropping recommendation request without reply subject", "correlation_id", req.CorrelationID)
		return nil
	}

	reply := queueReply{CorrelationID: req.CorrelationID}
	rec, err := s.rec.Recommend(ctx, Request{Question: req.Question, Result: req.QueryResult})
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Recommendation = rec
	}

	data, err := s.codec.Encode(reply)
	if err != nil {
		return err
	}
	if err := s.q.Publish(ctx, queue.Message{Subject: req.ReplyTo, Key: req.CorrelationID, Data: data}); err != nil {
		s.logger.Error("Failed to publish recommendation reply", "correlation_id", req.CorrelationID, "error", err)
		return err
	}
	return nil
}
