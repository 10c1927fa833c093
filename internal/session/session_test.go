package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/config"
)

func TestSession_SingleInFlight(t *testing.T) {
	s := New("sess")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryBegin() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, s.Pending())

	s.End()
	assert.False(t, s.Pending())
	assert.True(t, s.TryBegin())
}

func TestSession_Replace(t *testing.T) {
	s := New("sess")
	assert.Nil(t, s.Snapshot())

	first := &Snapshot{ID: "q1", Status: StatusReady}
	s.Replace(first)
	assert.Same(t, first, s.Snapshot())

	failed := &Snapshot{ID: "q2", Status: StatusFailed, Error: "boom"}
	s.Replace(failed)
	assert.Same(t, failed, s.Snapshot())
	assert.Nil(t, s.Snapshot().Result)
}

func TestSession_ApplyRecommendation(t *testing.T) {
	s := New("sess")
	orig := &Snapshot{ID: "q1", Status: StatusReady, RecommendationStatus: RecommendationPending}
	s.Replace(orig)

	seq := s.NextRecommendation()
	rec := &visualization.Recommendation{VisualizationType: "pieChart"}
	require.True(t, s.ApplyRecommendation(seq, "q1", rec, RecommendationApplied))

	cur := s.Snapshot()
	assert.NotSame(t, orig, cur)
	assert.Nil(t, orig.Recommendation, "previous snapshot must not be modified")
	assert.Equal(t, "pieChart", cur.Recommendation.VisualizationType)
	assert.Equal(t, RecommendationApplied, cur.RecommendationStatus)
}

func TestSession_StaleRecommendationDropped(t *testing.T) {
	s := New("sess")
	s.Replace(&Snapshot{ID: "q1"})
	stale := s.NextRecommendation()

	s.Replace(&Snapshot{ID: "q2"})
	latest := s.NextRecommendation()
	assert.Equal(t, latest, s.LatestRecommendation())

	rec := &visualization.Recommendation{VisualizationType: "barChart"}
	assert.False(t, s.ApplyRecommendation(stale, "q1", rec, RecommendationApplied))
	assert.False(t, s.ApplyRecommendation(latest, "q1", rec, RecommendationApplied))
	assert.Nil(t, s.Snapshot().Recommendation)

	assert.True(t, s.ApplyRecommendation(latest, "q2", rec, RecommendationApplied))
}

func TestSession_ApplyWithoutSnapshot(t *testing.T) {
	s := New("sess")
	seq := s.NextRecommendation()
	assert.False(t, s.ApplyRecommendation(seq, "q1", nil, RecommendationFailed))
}

func TestManager_GetCreatesOnce(t *testing.T) {
	m := NewManager(config.SessionConfig{IdleTimeout: time.Minute, CleanupInterval: time.Minute}, nil)
	defer m.Close()

	_, ok := m.Lookup("a")
	assert.False(t, ok)

	a := m.Get("a")
	assert.Same(t, a, m.Get("a"))
	assert.NotSame(t, a, m.Get("b"))
	assert.Equal(t, 2, m.Len())

	found, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, found)
	assert.Equal(t, 2, m.Stats()["active_entries"])
}

func TestManager_IdleSessionsExpire(t *testing.T) {
	m := NewManager(config.SessionConfig{IdleTimeout: 30 * time.Millisecond, CleanupInterval: 10 * time.Millisecond}, nil)
	defer m.Close()

	first := m.Get("a")
	first.Replace(&Snapshot{ID: "q1"})

	assert.Eventually(t, func() bool {
		_, ok := m.Lookup("a")
		return !ok
	}, time.Second, 10*time.Millisecond)

	fresh := m.Get("a")
	assert.NotSame(t, first, fresh)
	assert.Nil(t, fresh.Snapshot())
}
