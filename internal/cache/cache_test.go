package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_SetAndGet(t *testing.T) {
	c := New[string](time.Second, 0)
	defer c.Stop()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "simple", key: "session-1", value: "a"},
		{name: "empty_value", key: "session-2", value: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Set(tt.key, tt.value)
			v, ok := c.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.value, v)
		})
	}

	_, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTLCache_Expiration(t *testing.T) {
	c := New[int](20*time.Millisecond, 0)
	defer c.Stop()

	c.Set("k", 1)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Touch("k"))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, c.Stats()["expired_entries"])
}

func TestTTLCache_GetOrCreate(t *testing.T) {
	c := New[*int](time.Minute, 0)
	defer c.Stop()

	var created atomic.Int32
	create := func() *int {
		created.Add(1)
		v := 7
		return &v
	}

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrCreate("shared", create)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	_, fresh := c.GetOrCreate("shared", create)
	assert.False(t, fresh)
}

func TestTTLCache_GetOrCreateReplacesExpired(t *testing.T) {
	c := New[string](20*time.Millisecond, 0)
	defer c.Stop()

	c.Set("k", "old")
	time.Sleep(40 * time.Millisecond)

	v, fresh := c.GetOrCreate("k", func() string { return "new" })
	assert.True(t, fresh)
	assert.Equal(t, "new", v)
}

func TestTTLCache_TouchExtends(t *testing.T) {
	c := New[string](60*time.Millisecond, 0)
	defer c.Stop()

	c.Set("k", "v")
	time.Sleep(40 * time.Millisecond)
	require.True(t, c.Touch("k"))
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestTTLCache_DeleteAndClear(t *testing.T) {
	c := New[string](time.Minute, 0)
	defer c.Stop()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_JanitorEvicts(t *testing.T) {
	c := New[string](10*time.Millisecond, 15*time.Millisecond)
	defer c.Stop()

	evicted := make(chan string, 1)
	c.SetOnEvict(func(key, _ string) { evicted <- key })
	c.Set("k", "v")

	select {
	case key := <-evicted:
		assert.Equal(t, "k", key)
	case <-time.After(time.Second):
		t.Fatal("expected janitor to evict the entry")
	}
	assert.Equal(t, 0, c.Stats()["total_entries"])
}

func TestTTLCache_StopTwice(t *testing.T) {
	c := New[string](time.Minute, 0)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}
