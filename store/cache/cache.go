// Package cache provides a small in-memory TTL cache used to front hot
// store lookups. Single-process only; a shared cache tier is not needed
// for this deployment shape.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config holds cache settings.
type Config struct {
	// DefaultTTL is how long an entry stays valid.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; the least recently used entry is
	// evicted when the bound is exceeded.
	MaxItems int
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is a TTL + LRU bounded in-memory cache.
type Cache struct {
	mu      sync.Mutex
	config  Config
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	done    chan struct{}
	closeMu sync.Once
}

// New creates a cache and starts its sweep goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}

	c := &Cache{
		config: config,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		done:   make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	en := el.Value.(*entry)
	if time.Now().After(en.expiresAt) {
		c.removeLocked(el)
		return nil, false
	}
	c.order.MoveToFront(el)
	return en.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		en := el.Value.(*entry)
		en.value = value
		en.expiresAt = time.Now().Add(c.config.DefaultTTL)
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.config.DefaultTTL),
	})
	c.items[key] = el

	if c.order.Len() > c.config.MaxItems {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Close stops the sweep goroutine.
func (c *Cache) Close() {
	c.closeMu.Do(func() { close(c.done) })
}

func (c *Cache) removeLocked(el *list.Element) {
	en := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, en.key)
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for el := c.order.Back(); el != nil; {
				prev := el.Prev()
				if now.After(el.Value.(*entry).expiresAt) {
					c.removeLocked(el)
				}
				el = prev
			}
			c.mu.Unlock()
		}
	}
}
