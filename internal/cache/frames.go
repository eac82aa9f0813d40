package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/creatures/console/internal/lipsync"
)

// ErrItemTooLarge is returned when a single result exceeds the capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Stats holds cache metrics.
type Stats struct {
	Capacity  int64 // bytes
	Size      int64 // bytes
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// FrameCache is an LRU of resample results bounded by total frame bytes.
type FrameCache struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats
}

type frameEntry struct {
	key    string
	result lipsync.Result
	size   int64
	stored time.Time
}

// Key identifies a resample of content at msPerFrame.
func Key(content []byte, msPerFrame int) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(msPerFrame)))
	return hex.EncodeToString(h.Sum(nil))
}

// NewFrameCache creates a cache holding at most capacity frame bytes.
func NewFrameCache(capacity int64) *FrameCache {
	return &FrameCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Capacity: capacity},
	}
}

// Get returns the cached result for key.
func (c *FrameCache) Get(key string) (lipsync.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return lipsync.Result{}, false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*frameEntry).result, true
}

// Put stores res under key, evicting the least recently used results to
// make room.
func (c *FrameCache) Put(key string, res lipsync.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(res.Frames))
	if size > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*frameEntry)
		c.size += size - entry.size
		entry.result = res
		entry.size = size
		entry.stored = time.Now()

		// The updated entry is at the front and fits on its own.
		for c.size > c.capacity {
			c.evictOldest()
		}
		c.stats.Size = c.size
		return nil
	}

	for c.size+size > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	c.items[key] = c.eviction.PushFront(&frameEntry{
		key:    key,
		result: res,
		size:   size,
		stored: time.Now(),
	})
	c.size += size
	c.stats.Size = c.size
	c.stats.Items = len(c.items)
	return nil
}

// Delete removes key.
func (c *FrameCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Stats returns a snapshot of the cache metrics.
func (c *FrameCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Prune drops results stored longer than maxAge ago and returns how many
// were removed.
func (c *FrameCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*frameEntry).stored.Before(cutoff) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *FrameCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
	}
}

func (c *FrameCache) removeElement(elem *list.Element) {
	entry := c.eviction.Remove(elem).(*frameEntry)
	delete(c.items, entry.key)
	c.size -= entry.size
	c.stats.Size = c.size
	c.stats.Items = len(c.items)
}
