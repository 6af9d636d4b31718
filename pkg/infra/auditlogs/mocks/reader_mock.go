package mocks

import (
	"context"
	"fmt"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type Reader struct {
	mock.Mock
}

func (m *Reader) Recent(ctx context.Context, limit int) ([]*security.Event, error) {
	args := m.Called(ctx, limit)
	events, ok := args.Get(0).([]*security.Event)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected []*security.Event, got %T", args.Get(0))
	}
	return events, args.Error(1)
}

func (m *Reader) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	n, ok := args.Get(0).(int64)
	if !ok && args.Get(0) != nil {
		return 0, fmt.Errorf("expected int64, got %T", args.Get(0))
	}
	return n, args.Error(1)
}
