package recommend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/backend"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/queue"
)

const (
	requestSubject = "querylens.recommend.request"
	replySubject   = "querylens.recommend.reply"
)

// stubRecommender returns a fixed answer and counts calls.
type stubRecommender struct {
	rec   *visualization.Recommendation
	err   error
	calls atomic.Int32
}

func (s *stubRecommender) Recommend(ctx context.Context, _ Request) (*visualization.Recommendation, error) {
	s.calls.Add(1)
	return s.rec, s.err
}

// blockingRecommender waits for the context to end.
type blockingRecommender struct{}

func (blockingRecommender) Recommend(ctx context.Context, _ Request) (*visualization.Recommendation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func sampleRequest(question string) Request {
	records, _ := analytics.ParseRecords([]byte(`[{"_id":"Open","count":5},{"_id":"Closed","count":3}]`))
	return Request{Question: question, Result: analytics.NewQueryResult("tickets", records...)}
}

func newMemoryQueue(t *testing.T) queue.Queue {
	t.Helper()
	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Recommend(context.Background(), sampleRequest("q"))
	assert.ErrorIs(t, err, ErrDisabled)
	assert.True(t, IsDisabled(Disabled{}))
	assert.True(t, IsDisabled(NewCached(Disabled{}, time.Minute)))
	assert.False(t, IsDisabled(&stubRecommender{}))
}

func TestHTTPRecommender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"visualizationType":"comboChart","config":{"barField":"count","lineField":"avg"}}`))
	}))
	defer srv.Close()

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, RecommendPath: "/visualization-recommendation", Timeout: time.Second}, nil)
	rec, err := NewHTTPRecommender(client).Recommend(context.Background(), sampleRequest("trend"))
	require.NoError(t, err)
	assert.Equal(t, "comboChart", rec.VisualizationType)
	assert.Equal(t, "avg", rec.Config.LineField)
}

func TestCached(t *testing.T) {
	stub := &stubRecommender{rec: &visualization.Recommendation{VisualizationType: "pieChart"}}
	c := NewCached(stub, time.Minute)
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rec, err := c.Recommend(ctx, sampleRequest("status split"))
		require.NoError(t, err)
		assert.Equal(t, "pieChart", rec.VisualizationType)
	}
	assert.Equal(t, int32(1), stub.calls.Load())

	_, err := c.Recommend(ctx, sampleRequest("another question"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), stub.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCached_ErrorsNotCached(t *testing.T) {
	stub := &stubRecommender{err: errors.New("backend down")}
	c := NewCached(stub, time.Minute)
	defer c.Close()

	for i := 0; i < 2; i++ {
		_, err := c.Recommend(context.Background(), sampleRequest("q"))
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), stub.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCacheKey(t *testing.T) {
	a, ok := cacheKey(sampleRequest("q"))
	require.True(t, ok)
	b, _ := cacheKey(sampleRequest("q"))
	c, _ := cacheKey(sampleRequest("q2"))
	d, _ := cacheKey(Request{Question: "q"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestWithTimeout(t *testing.T) {
	r := WithTimeout(blockingRecommender{}, 20*time.Millisecond)

	start := time.Now()
	_, err := r.Recommend(context.Background(), sampleRequest("q"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestQueueRoundTrip(t *testing.T) {
	q := newMemoryQueue(t)

	stub := &stubRecommender{rec: &visualization.Recommendation{VisualizationType: "timelineChart", Title: "Tickets over time"}}
	responder := NewResponder(q, requestSubject, stub, nil)
	require.NoError(t, responder.Start())
	defer func() { _ = responder.Stop() }()

	r, err := NewQueueRecommender(q, requestSubject, replySubject, nil)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := r.Recommend(ctx, sampleRequest("tickets per month"))
	require.NoError(t, err)
	assert.Equal(t, "timelineChart", rec.VisualizationType)
	assert.Equal(t, "Tickets over time", rec.Title)
	assert.Equal(t, 0, r.Pending())
}

func TestQueueRoundTrip_ErrorReply(t *testing.T) {
	q := newMemoryQueue(t)

	responder := NewResponder(q, requestSubject, &stubRecommender{err: errors.New("model unavailable")}, nil)
	require.NoError(t, responder.Start())

	r, err := NewQueueRecommender(q, requestSubject, replySubject, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = r.Recommend(ctx, sampleRequest("q"))
	assert.EqualError(t, err, "model unavailable")
}

func TestQueueRecommender_NoResponder(t *testing.T) {
	q := newMemoryQueue(t)

	r, err := NewQueueRecommender(q, requestSubject, replySubject, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = r.Recommend(ctx, sampleRequest("q"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, r.Pending())

	// Late or foreign replies are ignored.
	assert.NoError(t, r.handleReply(context.Background(), queue.Message{Subject: replySubject, Key: "unknown", Data: []byte{0, '{', '}'}}))
	assert.NoError(t, r.handleReply(context.Background(), queue.Message{Subject: replySubject}))
}

func TestNew(t *testing.T) {
	client := backend.NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:1"}, nil)

	rec, closeFn, err := New(config.RecommendationConfig{Mode: config.RecommendDisabled}, client, nil, nil)
	require.NoError(t, err)
	assert.True(t, IsDisabled(rec))
	assert.NoError(t, closeFn())

	rec, closeFn, err = New(config.RecommendationConfig{Mode: config.RecommendBackend, Timeout: time.Second}, client, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &timeoutRecommender{}, rec)
	assert.NoError(t, closeFn())

	rec, closeFn, err = New(config.RecommendationConfig{Mode: config.RecommendBackend, Timeout: time.Second, CacheTTL: time.Minute}, client, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Cached{}, rec)
	assert.NoError(t, closeFn())

	_, _, err = New(config.RecommendationConfig{Mode: config.RecommendQueue}, client, nil, nil)
	assert.ErrorContains(t, err, "requires an enabled queue")

	_, _, err = New(config.RecommendationConfig{Mode: "telepathy"}, client, nil, nil)
	assert.ErrorContains(t, err, "unsupported recommendation mode")
}

func TestNew_QueueMode(t *testing.T) {
	q := newMemoryQueue(t)
	cfg := config.RecommendationConfig{
		Mode:           config.RecommendQueue,
		Timeout:        time.Second,
		RequestSubject: requestSubject,
		ReplySubject:   replySubject,
	}

	_, closeFn, err := New(cfg, nil, q, nil)
	require.NoError(t, err)

	// The reply subject is taken until closeFn releases it.
	assert.Error(t, q.Subscribe(replySubject, func(context.Context, queue.Message) error { return nil }))
	require.NoError(t, closeFn())
	assert.NoError(t, q.Subscribe(replySubject, func(context.Context, queue.Message) error { return nil }))
}
