package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type Blocker struct {
	mock.Mock
}

func (m *Blocker) Block(
	ctx context.Context,
	ip string,
	reason security.BlockReason,
	detail string,
	duration time.Duration,
) (*security.BlockEntry, error) {
	args := m.Called(ctx, ip, reason, detail, duration)
	entry, ok := args.Get(0).(*security.BlockEntry)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected *security.BlockEntry, got %T", args.Get(0))
	}
	return entry, args.Error(1)
}

func (m *Blocker) Unblock(ctx context.Context, ip string) error {
	args := m.Called(ctx, ip)
	return args.Error(0)
}

func (m *Blocker) Lookup(ctx context.Context, ip string) (*security.BlockEntry, error) {
	args := m.Called(ctx, ip)
	entry, ok := args.Get(0).(*security.BlockEntry)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected *security.BlockEntry, got %T", args.Get(0))
	}
	return entry, args.Error(1)
}

func (m *Blocker) List(ctx context.Context) ([]*security.BlockEntry, error) {
	args := m.Called(ctx)
	entries, ok := args.Get(0).([]*security.BlockEntry)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected []*security.BlockEntry, got %T", args.Get(0))
	}
	return entries, args.Error(1)
}

func (m *Blocker) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
