package history

import (
	"context"
	"sync"
	"time"

	"github.com/querylens/querylens/internal/cache"
)

// defaultMemoryTTL applies when no TTL is configured.
const defaultMemoryTTL = 24 * time.Hour

type sessionHistory struct {
	mu   sync.Mutex
	ring *Ring
}

// MemoryStore keeps history in process. Sessions idle for longer than the
// TTL are forgotten.
type MemoryStore struct {
	sessions *cache.TTLCache[*sessionHistory]
}

// NewMemoryStore creates a memory store. A non-positive ttl uses 24 hours.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &MemoryStore{sessions: cache.New[*sessionHistory](ttl, time.Minute)}
}

func (s *MemoryStore) Add(_ context.Context, sessionID, question string) error {
	question = normalize(question)
	if question == "" {
		return nil
	}
	h, _ := s.sessions.GetOrCreate(sessionID, func() *sessionHistory {
		return &sessionHistory{ring: NewRing(Capacity)}
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring.Push(question)
	return nil
}

func (s *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	h, ok := s.sessions.Get(sessionID)
	if !ok {
		return []string{}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ring.Items(), nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.sessions.Delete(sessionID)
	return nil
}

func (s *MemoryStore) Close() error {
	s.sessions.Stop()
	return nil
}
