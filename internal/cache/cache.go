package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is the injectable store behind report queries
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	// Clear removes every key starting with prefix, or everything when
	// prefix is empty
	Clear(prefix string)
	Stats() CacheStats
}

type CacheStats struct {
	Hits       int64         `json:"hits"`
	Misses     int64         `json:"misses"`
	Size       int           `json:"size"`
	TTL        time.Duration `json:"ttl"`
	LastAccess time.Time     `json:"last_access"`
}

type entry struct {
	value     interface{}
	fetchedAt time.Time
}

// TTLCache expires entries a fixed duration after they were stored. Expiry
// is judged with the injected clock; go-cache only reclaims memory.
type TTLCache struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(maxSize int, ttl time.Duration) *TTLCache {
	return &TTLCache{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
		ttl:     ttl,
		stats:   CacheStats{TTL: ttl},
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.stats.LastAccess = now

	if data, found := c.cache.Get(key); found {
		if e, ok := data.(entry); ok {
			if now.Sub(e.fetchedAt) < c.ttl {
				c.stats.Hits++
				return e.value, true
			}
			c.cache.Delete(key)
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache.Get(key); !exists && c.maxSize > 0 && c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, entry{value: value, fetchedAt: c.now()}, cache.DefaultExpiration)
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *TTLCache) Clear(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prefix == "" {
		c.cache.Flush()
		c.stats = CacheStats{TTL: c.ttl}
		return
	}

	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *TTLCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	return stats
}

func (c *TTLCache) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, item := range items {
		e, ok := item.Object.(entry)
		if !ok {
			continue
		}
		if oldestTime.IsZero() || e.fetchedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.fetchedAt
		}
	}

	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

// ReportKey builds the role_period key report data is cached under. Roles
// that see only their own assignments get the user id appended so two
// staff members never share an entry.
func ReportKey(role, period, userID string) string {
	key := role + "_" + period
	if userID != "" {
		key += "_" + userID
	}
	return key
}

// RolePrefix is the Clear prefix matching every report key of a role
func RolePrefix(role string) string {
	return role + "_"
}
