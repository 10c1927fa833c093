// Package session tracks dashboard sessions. Each session owns one current
// snapshot that is replaced as a whole, never modified in place, plus a guard
// that allows a single in-flight query.
package session

import (
	"sync/atomic"
	"time"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
)

// Status describes the current snapshot.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// RecommendationStatus tracks the side-channel recommendation of a snapshot.
type RecommendationStatus string

const (
	RecommendationNone     RecommendationStatus = "none"
	RecommendationPending  RecommendationStatus = "pending"
	RecommendationApplied  RecommendationStatus = "applied"
	RecommendationFailed   RecommendationStatus = "failed"
	RecommendationDisabled RecommendationStatus = "disabled"
)

// Snapshot is the result of one query. A failed query produces a snapshot
// that carries only the question and the error, so stale results are never
// shown next to an error.
type Snapshot struct {
	ID                   string                        `json:"id"`
	Question             string                        `json:"question"`
	Status               Status                        `json:"status"`
	Result               *analytics.QueryResult        `json:"result,omitempty"`
	Recommendation       *visualization.Recommendation `json:"recommendation,omitempty"`
	RecommendationStatus RecommendationStatus          `json:"recommendationStatus"`
	Error                string                        `json:"error,omitempty"`
	SubmittedAt          time.Time                     `json:"submittedAt"`
	CompletedAt          time.Time                     `json:"completedAt,omitempty"`
}

// Session is one dashboard session.
type Session struct {
	ID string

	pending  atomic.Bool
	snapshot atomic.Pointer[Snapshot]
	recSeq   atomic.Uint64
}

// New creates an idle session.
func New(id string) *Session {
	return &Session{ID: id}
}

// TryBegin claims the in-flight slot. It returns false when a query is
// already running.
func (s *Session) TryBegin() bool {
	return s.pending.CompareAndSwap(false, true)
}

// End releases the in-flight slot.
func (s *Session) End() {
	s.pending.Store(false)
}

// Pending reports whether a query is in flight.
func (s *Session) Pending() bool {
	return s.pending.Load()
}

// Snapshot returns the current snapshot, or nil before the first query.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Replace swaps in a new snapshot.
func (s *Session) Replace(snap *Snapshot) {
	s.snapshot.Store(snap)
}

// NextRecommendation starts a recommendation request and returns its
// sequence number. Only the latest sequence may apply its response.
func (s *Session) NextRecommendation() uint64 {
	return s.recSeq.Add(1)
}

// LatestRecommendation returns the most recently issued sequence number.
func (s *Session) LatestRecommendation() uint64 {
	return s.recSeq.Load()
}

// ApplyRecommendation installs a recommendation on the snapshot it was
// requested for. It reports false when seq is stale or the snapshot has been
// replaced since the request went out.
func (s *Session) ApplyRecommendation(seq uint64, snapshotID string, rec *visualization.Recommendation, status RecommendationStatus) bool {
	for {
		if seq != s.recSeq.Load() {
			return false
		}
		cur := s.snapshot.Load()
		if cur == nil || cur.ID != snapshotID {
			return false
		}
		next := *cur
		next.Recommendation = rec
		next.RecommendationStatus = status
		if s.snapshot.CompareAndSwap(cur, &next) {
			return true
		}
	}
}
