package mocks

import (
	"context"
	"fmt"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) Save(ctx context.Context, event *security.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *EventRepository) Recent(ctx context.Context, limit int) ([]*security.Event, error) {
	args := m.Called(ctx, limit)
	events, ok := args.Get(0).([]*security.Event)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected []*security.Event, got %T", args.Get(0))
	}
	return events, args.Error(1)
}

func (m *EventRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
