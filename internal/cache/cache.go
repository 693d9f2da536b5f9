package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store is the listing cache. Values are JSON encoded so memory and Redis
// behave identically. Generation numbers let writers invalidate every key of
// a namespace with a single bump instead of tracking keys.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, val any) error
	Generation(ctx context.Context, namespace string) (int64, error)
	Bump(ctx context.Context, namespace string) error
}

type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	gen map[string]int64
	now func() time.Time
}
type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		gen: make(map[string]int64),
		now: time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(e.val, dst); err != nil {
		return false, err
	}

	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.m[key] = entry{val: b, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return nil
}

func (c *Cache) Generation(_ context.Context, namespace string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gen[namespace], nil
}

// Bump moves the namespace to a new generation. Entries of older
// generations are unreachable and are dropped here rather than left to expire.
func (c *Cache) Bump(_ context.Context, namespace string) error {
	c.mu.Lock()
	c.gen[namespace]++
	c.m = make(map[string]entry)
	c.mu.Unlock()

	return nil
}
