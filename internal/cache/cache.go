// Package cache keeps recent solve results so identical requests skip the search.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/PearlCalc/extension/pkg/core"
)

// Key hashes a request into a cache key. Requests that marshal to the same
// JSON share a key.
func Key(request any) (string, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

type entry struct {
	key    string
	record core.SolveRecord
}

// ResultCache is a fixed-capacity LRU of solve records. A capacity of zero
// disables it.
type ResultCache struct {
	m        sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element

	Hits   SafeCounter
	Misses SafeCounter
}

func NewResultCache(capacity int) *ResultCache {
	return &ResultCache{
		capacity: max(capacity, 0),
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns a copy of the cached record and marks it recently used.
func (c *ResultCache) Get(key string) (core.SolveRecord, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	el, ok := c.entries[key]
	if !ok {
		c.Misses.Inc()
		return core.SolveRecord{}, false
	}
	c.Hits.Inc()
	c.order.MoveToFront(el)
	return clone(el.Value.(*entry).record), true
}

// Put stores a copy of rec, evicting the least recently used entry when full.
func (c *ResultCache) Put(key string, rec core.SolveRecord) {
	if c.capacity == 0 {
		return
	}
	c.m.Lock()
	defer c.m.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).record = clone(rec)
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&entry{key: key, record: clone(rec)})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *ResultCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.order.Len()
}

func (c *ResultCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.Hits.Set(0)
	c.Misses.Set(0)
}

func clone(rec core.SolveRecord) core.SolveRecord {
	rec.Results = slices.Clone(rec.Results)
	return rec
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
