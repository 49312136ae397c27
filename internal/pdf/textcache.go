package pdf

import (
	"fmt"
	"os"
	"sync"
)

// TextCache is a thread-safe LRU of acquired document text. Entries are keyed
// by path, size and modification time, so rewriting a file invalidates its
// entry without explicit bookkeeping.
type TextCache struct {
	mutex    sync.Mutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	value string
	prev  *cacheNode
	next  *cacheNode
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Size     int   `json:"current_size"`
	Capacity int   `json:"max_capacity"`
}

// NewTextCache creates a cache holding up to capacity documents. A
// non-positive capacity disables caching and returns nil; a nil cache is
// safe to use.
func NewTextCache(capacity int) *TextCache {
	if capacity <= 0 {
		return nil
	}

	c := &TextCache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// CacheKey derives the cache key of a file from its current stat.
func CacheKey(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()), true
}

// Get returns the cached text and marks it recently used.
func (c *TextCache) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[key]; ok {
		c.moveToFront(node)
		c.hits++
		return node.value, true
	}
	c.misses++
	return "", false
}

// Put stores text under key, evicting the least recently used entry when full.
func (c *TextCache) Put(key, text string) {
	if c == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[key]; ok {
		node.value = text
		c.moveToFront(node)
		return
	}

	node := &cacheNode{key: key, value: text}
	c.addToFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
}

// Len returns the number of cached documents.
func (c *TextCache) Len() int {
	if c == nil {
		return 0
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counters.
func (c *TextCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.items), Capacity: c.capacity}
}

func (c *TextCache) moveToFront(node *cacheNode) {
	c.removeNode(node)
	c.addToFront(node)
}

func (c *TextCache) addToFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *TextCache) removeNode(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
