// Package recommend obtains server-side visualization recommendations over
// HTTP, over the message queue, or not at all.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/backend"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/queue"
)

// ErrDisabled is returned by the disabled recommender.
var ErrDisabled = errors.New("recommendations are disabled")

// Request is what a recommendation is computed from.
type Request struct {
	Question string
	Result   *analytics.QueryResult
}

// Recommender returns a visualization recommendation for a result set.
type Recommender interface {
	Recommend(ctx context.Context, req Request) (*visualization.Recommendation, error)
}

// HTTPRecommender asks the query backend directly.
type HTTPRecommender struct {
	client *backend.Client
}

// NewHTTPRecommender creates a recommender on top of a backend client.
func NewHTTPRecommender(client *backend.Client) *HTTPRecommender {
	return &HTTPRecommender{client: client}
}

func (r *HTTPRecommender) Recommend(ctx context.Context, req Request) (*visualization.Recommendation, error) {
	return r.client.Recommend(ctx, backend.RecommendRequest{QueryResult: req.Result, Question: req.Question})
}

// Disabled never recommends anything.
type Disabled struct{}

func (Disabled) Recommend(context.Context, Request) (*visualization.Recommendation, error) {
	return nil, ErrDisabled
}

// IsDisabled reports whether r is the disabled recommender, possibly behind
// a cache.
func IsDisabled(r Recommender) bool {
	switch v := r.(type) {
	case Disabled:
		return true
	case *Cached:
		return IsDisabled(v.next)
	}
	return false
}

// New builds the recommender selected by cfg.Mode. Queue mode needs q; the
// returned close function releases what New subscribed.
func New(cfg config.RecommendationConfig, client *backend.Client, q queue.Queue, logger *logging.Logger) (Recommender, func() error, error) {
	noop := func() error { return nil }

	var (
		rec     Recommender
		closeFn = noop
	)
	switch cfg.Mode {
	case config.RecommendDisabled:
		return Disabled{}, noop, nil
	case "", config.RecommendBackend:
		rec = NewHTTPRecommender(client)
	case config.RecommendQueue:
		if q == nil {
			return nil, nil, fmt.Errorf("recommendation queue mode requires an enabled queue")
		}
		qr, err := NewQueueRecommender(q, cfg.RequestSubject, cfg.ReplySubject, logger)
		if err != nil {
			return nil, nil, err
		}
		rec, closeFn = qr, qr.Close
	default:
		return nil, nil, fmt.Errorf("unsupported recommendation mode: %s", cfg.Mode)
	}

	if cfg.Timeout > 0 {
		rec = WithTimeout(rec, cfg.Timeout)
	}
	if cfg.CacheTTL > 0 {
		cached := NewCached(rec, cfg.CacheTTL)
		inner := closeFn
		rec = cached
		closeFn = func() error {
			cached.Close()
			return inner()
		}
	}
	return rec, closeFn, nil
}

type timeoutRecommender struct {
	next    Recommender
	timeout time.Duration
}

// WithTimeout bounds every call to next.
func WithTimeout(next Recommender, timeout time.Duration) Recommender {
	return &timeoutRecommender{next: next, timeout: timeout}
}

func (r *timeoutRecommender) Recommend(ctx context.Context, req Request) (*visualization.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.Recommend(ctx, req)
}
