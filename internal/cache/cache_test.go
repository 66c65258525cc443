package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, cfg Config) (*Cache[int], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)}
	c := New[int](cfg)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(t, Config{TTL: time.Minute, MaxEntries: 10, CleanupInterval: time.Hour})
	key := Key("user:1", "occurrences", "2025-06-01", "2025-06-30")

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, 42)
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 42, got)

	c.Delete(key)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, Config{TTL: time.Minute, MaxEntries: 10, CleanupInterval: time.Hour})
	c.Set("a", 1)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	assert.Equal(t, Stats{TotalEntries: 1, ExpiredEntries: 1, ActiveEntries: 0}, c.Stats())
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Stats().TotalEntries)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, clock := newTestCache(t, Config{TTL: time.Hour, MaxEntries: 2, CleanupInterval: time.Hour})

	c.Set("a", 1)
	clock.Advance(time.Second)
	c.Set("b", 2)
	clock.Advance(time.Second)
	_, _ = c.Get("a")
	clock.Advance(time.Second)
	c.Set("c", 3)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(t, Config{TTL: time.Hour, MaxEntries: 10, CleanupInterval: time.Hour})
	for i := 0; i < 3; i++ {
		c.Set(Key("user:1", fmt.Sprint(i)), i)
	}
	c.Set(Key("user:10", "0"), 10)

	assert.Equal(t, 3, c.DeletePrefix(Scope("user:1")))
	_, ok := c.Get(Key("user:10", "0"))
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("s", "a", "b"), Key("s", "a", "b"))
	assert.NotEqual(t, Key("s", "ab", "c"), Key("s", "a", "bc"))
	assert.NotEqual(t, Key("s", "a"), Key("t", "a"))
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(t, Config{TTL: time.Hour, MaxEntries: 50, CleanupInterval: time.Hour})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("%d-%d", g, i%20)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Stats().TotalEntries, 50)
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := New[string](DefaultConfig)
	c.Set("a", "x")
	c.Close()
	c.Close()
	_, ok := c.Get("a")
	assert.False(t, ok)
}
