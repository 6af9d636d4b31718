package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

const DefaultMaxEntries = 10000

type bucket struct {
	mu   sync.Mutex
	hits []time.Time
	// dead is set once Sweep has unlinked the bucket from the map.
	dead bool
}

// prune keeps hits strictly after cutoff, at most max of them.
func (b *bucket) prune(cutoff time.Time, max int) {
	drop := sort.Search(len(b.hits), func(i int) bool { return b.hits[i].After(cutoff) })
	if excess := len(b.hits) - drop - max; excess > 0 {
		drop += excess
	}
	if drop > 0 {
		b.hits = append(b.hits[:0], b.hits[drop:]...)
	}
}

func (b *bucket) countAfter(t time.Time) int64 {
	i := sort.Search(len(b.hits), func(i int) bool { return b.hits[i].After(t) })
	return int64(len(b.hits) - i)
}

// MemoryCounter is a process-local sliding window counter. The map lock is
// only held to find a key's bucket; counting happens under the bucket lock.
type MemoryCounter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	maxEntries int
	done       chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
}

func NewMemoryCounter(sweepInterval time.Duration) *MemoryCounter {
	c := &MemoryCounter{
		buckets:    make(map[string]*bucket),
		maxEntries: DefaultMaxEntries,
		done:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(sweepInterval)
	}
	return c
}

func (c *MemoryCounter) bucketFor(key string) *bucket {
	c.mu.RLock()
	b, ok := c.buckets[key]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok = c.buckets[key]; !ok {
		b = &bucket{}
		c.buckets[key] = b
	}
	return b
}

func (c *MemoryCounter) Hit(_ context.Context, key string, now time.Time) (Counts, error) {
	b := c.lockedBucket(key)
	defer b.mu.Unlock()

	n := len(b.hits)
	if n == 0 || !now.Before(b.hits[n-1]) {
		b.hits = append(b.hits, now)
	} else {
		i := sort.Search(n, func(i int) bool { return b.hits[i].After(now) })
		b.hits = append(b.hits, time.Time{})
		copy(b.hits[i+1:], b.hits[i:])
		b.hits[i] = now
	}
	b.prune(now.Add(-time.Hour), c.maxEntries)

	return Counts{
		Minute: b.countAfter(now.Add(-time.Minute)),
		Hour:   int64(len(b.hits)),
	}, nil
}

// lockedBucket returns the live bucket for key with its lock held. A bucket
// swept between lookup and lock is skipped and the lookup retried.
func (c *MemoryCounter) lockedBucket(key string) *bucket {
	for {
		b := c.bucketFor(key)
		b.mu.Lock()
		if !b.dead {
			return b
		}
		b.mu.Unlock()
	}
}

// Sweep drops buckets with no hit in the trailing hour.
func (c *MemoryCounter) Sweep(now time.Time) int {
	cutoff := now.Add(-time.Hour)
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, b := range c.buckets {
		b.mu.Lock()
		if len(b.hits) == 0 || !b.hits[len(b.hits)-1].After(cutoff) {
			b.dead = true
			delete(c.buckets, key)
			removed++
		}
		b.mu.Unlock()
	}
	return removed
}

func (c *MemoryCounter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buckets)
}

func (c *MemoryCounter) sweepLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep(time.Now())
		case <-c.done:
			return
		}
	}
}

func (c *MemoryCounter) Close() {
	c.once.Do(func() {
		close(c.done)
		c.wg.Wait()
	})
}
