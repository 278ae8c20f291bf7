// Package cache provides the shared tile cache.
//
// Decoded tile buffers are owned by the cache. Callers receive an Entry
// handle alongside the buffer and must release it on every exit path; the
// buffer stays valid until both the cache has evicted it and every handle
// has been released. Fetch collapses concurrent misses so at most one
// decode runs per key.
package cache

import (
	"container/list"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the default cache size in bytes.
const DefaultCapacity = 32 << 20

// Key identifies one tile within one pyramid level.
type Key struct {
	Level int
	Col   int64
	Row   int64
}

func (k Key) String() string {
	return strconv.Itoa(k.Level) + "/" + strconv.FormatInt(k.Col, 10) + "/" + strconv.FormatInt(k.Row, 10)
}

// Entry is a release handle for one cached buffer.
type Entry struct {
	cache *Cache
	key   Key
	buf   []byte
	elem  *list.Element // nil once evicted
	refs  int
}

// Bytes returns the entry's buffer. Valid until Release.
func (e *Entry) Bytes() []byte {
	return e.buf
}

// Release returns the handle. Must be called exactly once per handle.
func (e *Entry) Release() {
	e.cache.mu.Lock()
	e.refs--
	e.cache.mu.Unlock()
}

// Cache is an LRU tile cache bounded by total buffer bytes.
type Cache struct {
	mu       sync.Mutex
	capacity int64
	used     int64
	entries  map[Key]*Entry
	lru      *list.List // front = most recently used
	group    singleflight.Group
}

// New creates a cache bounded to capacity bytes. A non-positive capacity
// selects DefaultCapacity.
func New(capacity int64) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[Key]*Entry),
		lru:      list.New(),
	}
}

// Get looks up a tile, returning its buffer and a release handle on a hit.
func (c *Cache) Get(key Key) ([]byte, *Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, nil, false
	}
	c.lru.MoveToFront(e.elem)
	e.refs++
	return e.buf, e, true
}

// Put inserts a buffer under key, evicting old entries as needed, and
// returns a release handle. The cache owns buf from this point.
func (c *Cache) Put(key Key, buf []byte) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.put(key, buf)
}

func (c *Cache) put(key Key, buf []byte) *Entry {
	if old, ok := c.entries[key]; ok {
		c.evict(old)
	}

	e := &Entry{cache: c, key: key, buf: buf, refs: 1}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.used += int64(len(buf))

	for c.used > c.capacity && c.lru.Len() > 1 {
		c.evict(c.lru.Back().Value.(*Entry))
	}
	return e
}

// evict removes an entry from the index. Outstanding handles keep the
// buffer alive; the entry just stops being findable.
func (c *Cache) evict(e *Entry) {
	if e.elem == nil {
		return
	}
	c.lru.Remove(e.elem)
	e.elem = nil
	delete(c.entries, e.key)
	c.used -= int64(len(e.buf))
}

// Fetch returns the tile under key, running fill to produce it on a miss.
// Concurrent fetches of the same key share one fill call and all observe
// the same buffer. A failed fill caches nothing and every waiter gets the
// error.
func (c *Cache) Fetch(key Key, fill func() ([]byte, error)) ([]byte, *Entry, error) {
	if buf, e, ok := c.Get(key); ok {
		return buf, e, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A fill may have completed between the miss and the flight.
		if _, e, ok := c.Get(key); ok {
			e.Release()
			return e, nil
		}
		buf, err := fill()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		e := c.put(key, buf)
		e.refs-- // the flight itself holds no reference
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, nil, err
	}

	e := v.(*Entry)
	c.mu.Lock()
	e.refs++
	c.mu.Unlock()
	return e.buf, e, nil
}

// Used returns the resident byte count.
func (c *Cache) Used() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len returns the resident entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
