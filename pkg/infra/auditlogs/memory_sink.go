package auditlogs

import (
	"context"
	"sync"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

const defaultMemoryEvents = 1000

// MemorySink keeps the last N events in a ring. Count reports every event
// written since start, including the ones already overwritten.
type MemorySink struct {
	mu    sync.RWMutex
	ring  []*security.Event
	next  int
	size  int
	total int64
}

func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = defaultMemoryEvents
	}
	return &MemorySink{ring: make([]*security.Event, capacity)}
}

func (s *MemorySink) Name() string {
	return SinkMemory
}

func (s *MemorySink) Write(ctx context.Context, evt *security.Event) error {
	return s.Save(ctx, evt)
}

func (s *MemorySink) Save(_ context.Context, evt *security.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = evt
	s.next = (s.next + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
	s.total++
	return nil
}

// Recent returns up to limit events, newest first. A non-positive limit
// returns everything retained.
func (s *MemorySink) Recent(_ context.Context, limit int) ([]*security.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > s.size {
		limit = s.size
	}
	out := make([]*security.Event, 0, limit)
	idx := s.next
	for i := 0; i < limit; i++ {
		idx = (idx - 1 + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out, nil
}

func (s *MemorySink) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

func (s *MemorySink) Close() error {
	return nil
}
