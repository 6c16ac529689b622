package evaluator

import (
	"fmt"
	"sync"
	"time"
)

// PersistentStore is an optional second cache layer that survives runs.
// Implemented by internal/storage.
type PersistentStore interface {
	LoadEvaluation(fen string, thinkTime time.Duration) (Evaluation, bool, error)
	SaveEvaluation(fen string, thinkTime time.Duration, ev Evaluation) error
}

// Cached wraps an Engine with an in-memory evaluation cache and an optional
// persistent layer. Adjacent analyzed moves share a position (the after-eval
// of one move is the before-eval of the next), so hit rates are high.
type Cached struct {
	inner Engine
	store PersistentStore // may be nil

	mu      sync.RWMutex
	cache   map[string]Evaluation
	maxSize int
	hits    uint64
	misses  uint64
}

// NewCached creates a caching engine wrapper. store may be nil.
func NewCached(inner Engine, cacheSize int, store PersistentStore) *Cached {
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &Cached{
		inner:   inner,
		store:   store,
		cache:   make(map[string]Evaluation, cacheSize),
		maxSize: cacheSize,
	}
}

func cacheKey(fen string, thinkTime time.Duration) string {
	return fmt.Sprintf("%d|%s", thinkTime.Milliseconds(), fen)
}

// Analyze returns a cached evaluation when available, otherwise consults the
// persistent layer and finally the engine.
func (c *Cached) Analyze(fen string, thinkTime time.Duration) (Evaluation, error) {
	key := cacheKey(fen, thinkTime)

	c.mu.RLock()
	ev, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return ev, nil
	}

	if c.store != nil {
		if ev, ok, err := c.store.LoadEvaluation(fen, thinkTime); err == nil && ok {
			c.put(key, ev)
			return ev, nil
		}
	}

	ev, err := c.inner.Analyze(fen, thinkTime)
	if err != nil {
		return Evaluation{}, err
	}

	c.put(key, ev)
	if c.store != nil {
		_ = c.store.SaveEvaluation(fen, thinkTime, ev)
	}
	return ev, nil
}

func (c *Cached) put(key string, ev Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	if len(c.cache) >= c.maxSize {
		// Simple eviction: clear half the cache.
		i := 0
		for k := range c.cache {
			if i >= c.maxSize/2 {
				break
			}
			delete(c.cache, k)
			i++
		}
	}
	c.cache[key] = ev
}

// Close closes the wrapped engine.
func (c *Cached) Close() error {
	return c.inner.Close()
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cached) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total) * 100
}
