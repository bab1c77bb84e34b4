package format

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Cache memoises formatted content per key (usually a widget node), so
// unchanged widgets are not re-laid out every frame. An entry is reused only
// while both the text and the options are unchanged.
type Cache struct {
	mu        sync.RWMutex
	entries   map[int]*cacheEntry
	formatter *Formatter
	maxSize   int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheEntry struct {
	content    *Content
	hash       uint64
	lastAccess time.Time
}

// NewCache creates a content cache. maxSize 0 means unbounded.
func NewCache(formatter *Formatter, maxSize int) *Cache {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Cache{
		entries:   make(map[int]*cacheEntry),
		formatter: formatter,
		maxSize:   maxSize,
	}
}

// Get returns the formatted content for key, formatting on a miss.
func (c *Cache) Get(key int, text string, opts Options) *Content {
	hash := hashInput(text, opts)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.hash == hash {
		e.lastAccess = time.Now()
		content := e.content
		c.mu.Unlock()
		c.hits.Add(1)
		return content
	}
	c.mu.Unlock()

	c.misses.Add(1)
	content := c.formatter.Format(text, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{content: content, hash: hash, lastAccess: time.Now()}
	if c.maxSize > 0 && len(c.entries) > c.maxSize {
		c.evict()
	}
	return content
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll clears the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*cacheEntry)
}

// evict removes the least recently used entries until under maxSize.
// Must be called with the lock held.
func (c *Cache) evict() {
	type keyTime struct {
		key  int
		time time.Time
	}
	entries := make([]keyTime, 0, len(c.entries))
	for k, e := range c.entries {
		entries = append(entries, keyTime{k, e.lastAccess})
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].time.Before(entries[j-1].time); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	toRemove := len(entries) - c.maxSize
	for i := 0; i < toRemove; i++ {
		delete(c.entries, entries[i].key)
	}
	if toRemove > 0 {
		c.evictions.Add(uint64(toRemove))
	}
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Size:      c.Size(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// hashInput hashes text and every option that affects layout with FNV-1a.
func hashInput(text string, opts Options) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(len(text)))
	h.Write([]byte(text))
	put(uint64(opts.Width))
	put(uint64(opts.Base.Pack()))
	put(uint64(opts.TabSize))
	put(uint64(opts.Align))
	var flags uint64
	if opts.Tags {
		flags |= 1
	}
	if opts.Wrap {
		flags |= 2
	}
	if opts.FullUnicode {
		flags |= 4
	}
	put(flags)
	return h.Sum64()
}
