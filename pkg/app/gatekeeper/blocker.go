package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const DefaultBlockDuration = 24 * time.Hour

//go:generate mockery --name=Blocker --dir=. --output=./mocks --filename=blocker_mock.go --case=underscore --with-expecter
type Blocker interface {
	Block(ctx context.Context, ip string, reason security.BlockReason, detail string, duration time.Duration) (*security.BlockEntry, error)
	Unblock(ctx context.Context, ip string) error
	// Lookup returns the unexpired entry for ip or security.ErrBlockNotFound.
	Lookup(ctx context.Context, ip string) (*security.BlockEntry, error)
	List(ctx context.Context) ([]*security.BlockEntry, error)
	Count(ctx context.Context) (int, error)
}

type blocker struct {
	logger   *logrus.Logger
	store    security.BlockStore
	duration time.Duration
	now      func() time.Time
}

func NewBlocker(logger *logrus.Logger, store security.BlockStore, duration time.Duration, now func() time.Time) Blocker {
	if duration <= 0 {
		duration = DefaultBlockDuration
	}
	if now == nil {
		now = time.Now
	}
	return &blocker{
		logger:   logger,
		store:    store,
		duration: duration,
		now:      now,
	}
}

// Block stores an entry expiring duration after now. A non-positive duration
// uses the configured block duration.
func (b *blocker) Block(
	ctx context.Context,
	ip string,
	reason security.BlockReason,
	detail string,
	duration time.Duration,
) (*security.BlockEntry, error) {
	if ip == "" {
		return nil, security.ErrInvalidIP
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("invalid block reason %q", reason)
	}
	if duration <= 0 {
		duration = b.duration
	}
	entry := security.NewBlockEntry(ip, reason, detail, b.now(), duration)
	if err := b.store.Block(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to block %s: %w", ip, err)
	}
	prometheus.BlocksCreated.WithLabelValues(string(reason)).Inc()
	b.logger.WithFields(logrus.Fields{
		"ip":         ip,
		"reason":     reason,
		"detail":     detail,
		"expires_at": entry.ExpiresAt.Format(time.RFC3339),
	}).Warn("ip blocked")
	b.refreshGauge(ctx)
	return entry, nil
}

func (b *blocker) Unblock(ctx context.Context, ip string) error {
	if err := b.store.Unblock(ctx, ip); err != nil {
		return err
	}
	b.logger.WithField("ip", ip).Info("ip unblocked")
	b.refreshGauge(ctx)
	return nil
}

func (b *blocker) Lookup(ctx context.Context, ip string) (*security.BlockEntry, error) {
	entry, err := b.store.Get(ctx, ip)
	if err != nil {
		return nil, err
	}
	if !entry.ActiveAt(b.now()) {
		return nil, security.ErrBlockNotFound
	}
	return entry, nil
}

func (b *blocker) List(ctx context.Context) ([]*security.BlockEntry, error) {
	entries, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := b.now()
	active := entries[:0]
	for _, e := range entries {
		if e.ActiveAt(now) {
			active = append(active, e)
		}
	}
	prometheus.ActiveBlocks.Set(float64(len(active)))
	return active, nil
}

func (b *blocker) Count(ctx context.Context) (int, error) {
	n, err := b.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	prometheus.ActiveBlocks.Set(float64(n))
	return n, nil
}

func (b *blocker) refreshGauge(ctx context.Context) {
	if _, err := b.Count(ctx); err != nil && !errors.Is(err, context.Canceled) {
		b.logger.WithError(err).Debug("failed to refresh active blocks gauge")
	}
}
