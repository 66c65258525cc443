// Package cache keeps computed occurrence lists and analytics for a short
// time so repeated reads of the same range skip the store.
package cache

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	expiresAt  time.Time
	accessedAt time.Time
}

// Config holds cache limits.
type Config struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Size that triggers eviction
	CleanupInterval time.Duration // How often expired entries are swept
}

var DefaultConfig = Config{
	TTL:             time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// Cache is a TTL cache with least-recently-used eviction once MaxEntries is
// exceeded. Keys built with Key share a per-scope prefix so everything cached
// for one user can be dropped at once.
type Cache[V any] struct {
	entries     map[string]*entry[V]
	mutex       sync.RWMutex
	ttl         time.Duration
	maxEntries  int
	now         func() time.Time
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

func New[V any](cfg Config) *Cache[V] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig.MaxEntries
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig.CleanupInterval
	}
	c := &Cache[V]{
		entries:     make(map[string]*entry[V]),
		ttl:         cfg.TTL,
		maxEntries:  cfg.MaxEntries,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop(cfg.CleanupInterval)
	return c
}

// Scope is the key prefix shared by every key built for scope.
func Scope(scope string) string {
	return scope + "/"
}

// Key builds a cache key under scope from the hash of parts.
func Key(scope string, parts ...string) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write([]byte(p))
		hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%s%x", Scope(scope), hasher.Sum(nil))
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	e.accessedAt = now
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = &entry[V]{value: value, expiresAt: now.Add(c.ttl), accessedAt: now}
	if len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// DeletePrefix drops every key starting with prefix and returns how many
// entries were removed.
func (c *Cache[V]) DeletePrefix(prefix string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// cleanup removes expired entries, then the least recently accessed ones
// until the cache fits. Callers hold the write lock.
func (c *Cache[V]) cleanup(now time.Time) {
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.entries[a].accessedAt.Compare(c.entries[b].accessedAt)
	})
	for _, key := range keys[:len(keys)-c.maxEntries] {
		delete(c.entries, key)
	}
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup(c.now())
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and empties the cache.
func (c *Cache[V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	c.mutex.Lock()
	c.entries = make(map[string]*entry[V])
	c.mutex.Unlock()
}

type Stats struct {
	TotalEntries   int `json:"totalEntries"`
	ExpiredEntries int `json:"expiredEntries"`
	ActiveEntries  int `json:"activeEntries"`
}

func (c *Cache[V]) Stats() Stats {
	now := c.now()

	c.mutex.RLock()
	defer c.mutex.RUnlock()
	expired := 0
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			expired++
		}
	}
	return Stats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
	}
}
