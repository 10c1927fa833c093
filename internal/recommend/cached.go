package recommend

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/cache"
)

// Cached remembers recommendations per (question, results) pair. Failures
// are not cached.
type Cached struct {
	next    Recommender
	entries *cache.TTLCache[*visualization.Recommendation]
}

// NewCached wraps next with a TTL cache.
func NewCached(next Recommender, ttl time.Duration) *Cached {
	return &Cached{
		next:    next,
		entries: cache.New[*visualization.Recommendation](ttl, ttl),
	}
}

func (c *Cached) Recommend(ctx context.Context, req Request) (*visualization.Recommendation, error) {
	key, ok := cacheKey(req)
	if ok {
		if rec, hit := c.entries.Get(key); hit {
			return rec, nil
		}
	}

	rec, err := c.next.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}
	if ok {
		c.entries.Set(key, rec)
	}
	return rec, nil
}

// Len returns the number of cached recommendations.
func (c *Cached) Len() int {
	return c.entries.Len()
}

// Close stops the cache janitor.
func (c *Cached) Close() {
	c.entries.Stop()
}

// cacheKey hashes the question and the results with FNV-64a.
func cacheKey(req Request) (string, bool) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(req.Question))
	_, _ = h.Write([]byte{0})
	if req.Result != nil {
		data, err := json.Marshal(req.Result.Results)
		if err != nil {
			return "", false
		}
		_, _ = h.Write(data)
	}
	return strconv.FormatUint(h.Sum64(), 16), true
}
