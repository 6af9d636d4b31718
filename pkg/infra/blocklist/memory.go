package blocklist

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
)

type expiry struct {
	ip        string
	expiresAt time.Time
}

type expiryHeap []expiry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(expiry)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MemoryStore keeps blocks in process. Lookups check ExpiresAt lazily and a
// single min-heap of expirations is drained on a fixed interval.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*security.BlockEntry
	expiry  expiryHeap
	now     func() time.Time
	logger  *logrus.Logger
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(logger *logrus.Logger, sweepInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*security.BlockEntry),
		now:     time.Now,
		logger:  logger,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Block(_ context.Context, entry *security.BlockEntry) error {
	if entry == nil || entry.IP == "" {
		return security.ErrInvalidIP
	}
	stored := *entry
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.IP] = &stored
	heap.Push(&s.expiry, expiry{ip: entry.IP, expiresAt: entry.ExpiresAt})
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ip string) (*security.BlockEntry, error) {
	now := s.now()
	s.mu.RLock()
	entry, ok := s.entries[ip]
	s.mu.RUnlock()
	if !ok {
		return nil, security.ErrBlockNotFound
	}
	if !entry.ActiveAt(now) {
		s.mu.Lock()
		if current, ok := s.entries[ip]; ok && !current.ActiveAt(now) {
			delete(s.entries, ip)
		}
		s.mu.Unlock()
		return nil, security.ErrBlockNotFound
	}
	out := *entry
	return &out, nil
}

func (s *MemoryStore) Unblock(_ context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ip]
	if !ok || !entry.ActiveAt(s.now()) {
		delete(s.entries, ip)
		return security.ErrBlockNotFound
	}
	delete(s.entries, ip)
	return nil
}

// List returns active blocks, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*security.BlockEntry, error) {
	now := s.now()
	s.mu.RLock()
	out := make([]*security.BlockEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.ActiveAt(now) {
			e := *entry
			out = append(out, &e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockedAt.Equal(out[j].BlockedAt) {
			return out[i].IP < out[j].IP
		}
		return out[i].BlockedAt.After(out[j].BlockedAt)
	})
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entry := range s.entries {
		if entry.ActiveAt(now) {
			n++
		}
	}
	return n, nil
}

// Sweep pops due expirations and removes the matching entries. Heap items
// left behind by a re-block or an unblock are discarded.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for s.expiry.Len() > 0 && !now.Before(s.expiry[0].expiresAt) {
		item := heap.Pop(&s.expiry).(expiry)
		entry, ok := s.entries[item.ip]
		if ok && entry.ExpiresAt.Equal(item.expiresAt) {
			delete(s.entries, item.ip)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := s.Sweep(s.now()); removed > 0 && s.logger != nil {
				s.logger.WithField("removed", removed).Info("expired ip blocks removed")
			}
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
