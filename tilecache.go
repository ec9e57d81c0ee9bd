package plink

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// tileKey addresses one chunk of the genotype tensor by its grid position.
type tileKey struct {
	variant, sample int
}

func (k tileKey) String() string {
	return fmt.Sprintf("%d/%d", k.variant, k.sample)
}

type tileEntry struct {
	key   tileKey
	block *Block
}

// tileCache keeps decoded chunks in least-recently-used order, bounded by
// the bytes they hold. Concurrent loads of the same chunk share one decode.
type tileCache struct {
	mu       sync.Mutex
	maxBytes int64 // 0 disables caching, < 0 is unbounded
	size     int64
	ll       *list.List
	items    map[tileKey]*list.Element

	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

func newTileCache(maxBytes int64) *tileCache {
	return &tileCache{
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[tileKey]*list.Element),
	}
}

func (c *tileCache) get(key tileKey) (*Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*tileEntry).block, true
	}
	return nil, false
}

func (c *tileCache) add(key tileKey, block *Block) {
	if c.maxBytes == 0 {
		return
	}
	size := int64(block.Len())
	if c.maxBytes > 0 && size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&tileEntry{key: key, block: block})
	c.size += size

	for c.maxBytes > 0 && c.size > c.maxBytes {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		entry := c.ll.Remove(oldest).(*tileEntry)
		delete(c.items, entry.key)
		c.size -= int64(entry.block.Len())
	}
}

// load returns the cached chunk for key, decoding it with fn on a miss.
func (c *tileCache) load(key tileKey, fn func() (*Block, error)) (*Block, error) {
	if block, ok := c.get(key); ok {
		c.hits.Add(1)
		return block, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if block, ok := c.get(key); ok {
			c.hits.Add(1)
			return block, nil
		}
		c.misses.Add(1)
		block, err := fn()
		if err != nil {
			return nil, err
		}
		c.add(key, block)
		return block, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Block), nil
}

// CacheStats reports chunk cache activity.
type CacheStats struct {
	Hits   int64
	Misses int64
	Chunks int
	Bytes  int64
}

func (c *tileCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Chunks: c.ll.Len(),
		Bytes:  c.size,
	}
}
