package mocks

import (
	"context"
	"fmt"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type BlockStore struct {
	mock.Mock
}

func (m *BlockStore) Block(ctx context.Context, entry *security.BlockEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *BlockStore) Get(ctx context.Context, ip string) (*security.BlockEntry, error) {
	args := m.Called(ctx, ip)
	entry, ok := args.Get(0).(*security.BlockEntry)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected *security.BlockEntry, got %T", args.Get(0))
	}
	return entry, args.Error(1)
}

func (m *BlockStore) Unblock(ctx context.Context, ip string) error {
	args := m.Called(ctx, ip)
	return args.Error(0)
}

func (m *BlockStore) List(ctx context.Context) ([]*security.BlockEntry, error) {
	args := m.Called(ctx)
	entries, ok := args.Get(0).([]*security.BlockEntry)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected []*security.BlockEntry, got %T", args.Get(0))
	}
	return entries, args.Error(1)
}

func (m *BlockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
