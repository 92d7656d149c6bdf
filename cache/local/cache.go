package local

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

// entry holds a cached string value with an optional expiry.
type entry struct {
	data     string
	expireAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

func newEntry(value string, ttl time.Duration) *entry {
	e := &entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	return e
}

// LocalCache is an in-process cache used when no Redis address is configured.
type LocalCache struct {
	mu   sync.Mutex
	kv   map[string]*entry
	sets map[string]map[string]struct{}

	gcInterval time.Duration
	stopGC     chan struct{}
	closeOnce  sync.Once
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:         make(map[string]*entry),
		sets:       make(map[string]map[string]struct{}),
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.runGC()
	return c, nil
}

// Close stops the background GC goroutine. It is safe to call twice.
func (c *LocalCache) Close() {
	c.closeOnce.Do(func() { close(c.stopGC) })
}

func (c *LocalCache) runGC() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// live returns the entry for key, dropping it when expired. Caller holds mu.
func (c *LocalCache) live(key string) (*entry, bool) {
	e, ok := c.kv[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.kv, key)
		return nil, false
	}
	return e, true
}

// ---- KV ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.kv[key] = newEntry(value, ttl)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.sets, k)
	}
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	return ok, nil
}

func (c *LocalCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.kv[key] = newEntry(value, ttl)
	return true, nil
}

func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return ErrNotFound
	}
	c.kv[key] = newEntry(e.data, ttl)
	return nil
}

// Incr increments the integer stored at key, treating a missing key as 0.
// The key keeps its expiry.
func (c *LocalCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	e, ok := c.live(key)
	if ok {
		v, err := strconv.ParseInt(e.data, 10, 64)
		if err != nil {
			return 0, err
		}
		n = v
	} else {
		e = &entry{}
		c.kv[key] = e
	}
	n++
	e.data = strconv.FormatInt(n, 10)
	return n, nil
}

// ---- Set ----

func (c *LocalCache) SAdd(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sets[key]
	if !ok {
		s = make(map[string]struct{})
		c.sets[key] = s
	}
	for _, m := range members {
		s[m] = struct{}{}
	}
	return nil
}

func (c *LocalCache) SRem(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sets[key]
	for _, m := range members {
		delete(s, m)
	}
	if len(s) == 0 {
		delete(c.sets, key)
	}
	return nil
}

func (c *LocalCache) SCard(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.sets[key])), nil
}

func (c *LocalCache) SIsMember(_ context.Context, key, member string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sets[key][member]
	return ok, nil
}
