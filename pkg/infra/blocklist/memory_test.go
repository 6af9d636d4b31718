package blocklist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newStore(c *clock) *MemoryStore {
	return NewMemoryStore(logrus.New(), 0, WithClock(c.Now))
}

func TestMemoryStore_BlockExpiresAfterDuration(t *testing.T) {
	c := &clock{now: t0}
	s := newStore(c)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Block(ctx, security.NewBlockEntry("1.2.3.4", security.BlockReasonHoneypot, "/.env", t0, 24*time.Hour)))

	c.Set(t0.Add(24*time.Hour - time.Nanosecond))
	entry, err := s.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, security.BlockReasonHoneypot, entry.Reason)

	c.Set(t0.Add(24*time.Hour + time.Millisecond))
	_, err = s.Get(ctx, "1.2.3.4")
	assert.ErrorIs(t, err, security.ErrBlockNotFound)
}

func TestMemoryStore_UnknownIP(t *testing.T) {
	s := newStore(&clock{now: t0})
	defer s.Close()
	_, err := s.Get(context.Background(), "9.9.9.9")
	assert.ErrorIs(t, err, security.ErrBlockNotFound)
	assert.ErrorIs(t, s.Unblock(context.Background(), "9.9.9.9"), security.ErrBlockNotFound)
	assert.ErrorIs(t, s.Block(context.Background(), &security.BlockEntry{}), security.ErrInvalidIP)
}

func TestMemoryStore_Unblock(t *testing.T) {
	s := newStore(&clock{now: t0})
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Block(ctx, security.NewBlockEntry("1.2.3.4", security.BlockReasonManual, "", t0, time.Hour)))

	require.NoError(t, s.Unblock(ctx, "1.2.3.4"))
	_, err := s.Get(ctx, "1.2.3.4")
	assert.ErrorIs(t, err, security.ErrBlockNotFound)
}

func TestMemoryStore_ListAndCount(t *testing.T) {
	c := &clock{now: t0.Add(2 * time.Hour)}
	s := newStore(c)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Block(ctx, security.NewBlockEntry("1.1.1.1", security.BlockReasonGeo, "US", t0, 24*time.Hour)))
	require.NoError(t, s.Block(ctx, security.NewBlockEntry("2.2.2.2", security.BlockReasonHighRisk, "", t0.Add(time.Hour), 24*time.Hour)))
	require.NoError(t, s.Block(ctx, security.NewBlockEntry("3.3.3.3", security.BlockReasonManual, "", t0, time.Hour)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2.2.2.2", list[0].IP)
	assert.Equal(t, "1.1.1.1", list[1].IP)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryStore_SweepUsesHeap(t *testing.T) {
	c := &clock{now: t0}
	s := newStore(c)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Block(ctx, security.NewBlockEntry("1.1.1.1", security.BlockReasonHighRisk, "", t0, time.Hour)))
	require.NoError(t, s.Block(ctx, security.NewBlockEntry("2.2.2.2", security.BlockReasonHighRisk, "", t0, 2*time.Hour)))
	// re-block extends 1.1.1.1; its first heap item is stale
	require.NoError(t, s.Block(ctx, security.NewBlockEntry("1.1.1.1", security.BlockReasonManual, "", t0, 3*time.Hour)))

	assert.Equal(t, 0, s.Sweep(t0.Add(time.Hour)))
	assert.Equal(t, 1, s.Sweep(t0.Add(2*time.Hour)))
	assert.Len(t, s.entries, 1)
	assert.Equal(t, 1, s.Sweep(t0.Add(3*time.Hour)))
	assert.Empty(t, s.entries)
	assert.Zero(t, s.expiry.Len())
}

func TestMemoryStore_BackgroundSweep(t *testing.T) {
	c := &clock{now: t0}
	s := NewMemoryStore(logrus.New(), time.Millisecond, WithClock(c.Now))
	defer s.Close()
	require.NoError(t, s.Block(context.Background(), security.NewBlockEntry("1.1.1.1", security.BlockReasonGeo, "", t0, time.Minute)))

	c.Set(t0.Add(2 * time.Minute))
	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.entries) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := newStore(&clock{now: t0})
	defer s.Close()
	ctx := context.Background()
	entry := security.NewBlockEntry("1.1.1.1", security.BlockReasonGeo, "US", t0, time.Hour)
	require.NoError(t, s.Block(ctx, entry))
	entry.Detail = "mutated"

	got, err := s.Get(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "US", got.Detail)
}
