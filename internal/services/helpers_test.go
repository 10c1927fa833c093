package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/events"
	"github.com/querylens/querylens/internal/history"
	"github.com/querylens/querylens/internal/recommend"
	"github.com/querylens/querylens/internal/session"
)

// fakeBackend answers questions from a fixed table of payloads.
type fakeBackend struct {
	mu       sync.Mutex
	payloads map[string]string
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeBackend) Query(ctx context.Context, question string) (*analytics.QueryResult, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return analytics.ParseQueryResult([]byte(f.payloads[question]))
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// gatedRecommender answers each question only once its gate is released.
type gatedRecommender struct {
	mu    sync.Mutex
	gates map[string]chan *visualization.Recommendation
}

func newGatedRecommender() *gatedRecommender {
	return &gatedRecommender{gates: make(map[string]chan *visualization.Recommendation)}
}

func (g *gatedRecommender) gate(question string) chan *visualization.Recommendation {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[question]
	if !ok {
		ch = make(chan *visualization.Recommendation, 1)
		g.gates[question] = ch
	}
	return ch
}

func (g *gatedRecommender) Recommend(ctx context.Context, req recommend.Request) (*visualization.Recommendation, error) {
	select {
	case rec := <-g.gate(req.Question):
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fixedRecommender always returns the same recommendation.
type fixedRecommender struct {
	rec *visualization.Recommendation
}

func (f fixedRecommender) Recommend(context.Context, recommend.Request) (*visualization.Recommendation, error) {
	return f.rec, nil
}

type testEnv struct {
	service   *QueryService
	backend   *fakeBackend
	publisher *recordingPublisher
	sessions  *session.Manager
	history   history.Store
}

func newTestEnv(t *testing.T, rec recommend.Recommender) *testEnv {
	t.Helper()
	fb := &fakeBackend{payloads: map[string]string{
		"tickets by status": `{"query":{"collection":"tickets"},"results":[{"_id":"Open","count":5},{"_id":"Closed","count":3}],"metadata":{"executionTime":12.345}}`,
		"open tickets":      `{"query":{"collection":"tickets"},"results":[{"_id":"1","status":"Open","priority":"High"},{"_id":"2","status":"Open","priority":"Low"}]}`,
		"nothing":           `{"query":{"collection":"tickets"},"results":[]}`,
	}}
	pub := &recordingPublisher{}
	sessions := session.NewManager(config.SessionConfig{IdleTimeout: time.Minute, CleanupInterval: time.Minute}, nil)
	store := history.NewMemoryStore(time.Minute)
	interp := NewInterpretService(nil, 500)
	views := NewViewService(interp, config.ViewsConfig{TablePageSize: 10, CardPageSize: 9, MaxChartPoints: 500})

	svc := NewQueryService(nil, fb, sessions, store, pub, rec, interp, views)
	t.Cleanup(func() {
		svc.Close()
		sessions.Close()
		_ = store.Close()
	})
	return &testEnv{service: svc, backend: fb, publisher: pub, sessions: sessions, history: store}
}

func requireServiceError(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	se, ok := AsServiceError(err)
	require.True(t, ok, "expected ServiceError, got %v", err)
	require.Equal(t, code, se.Code)
	return se
}
