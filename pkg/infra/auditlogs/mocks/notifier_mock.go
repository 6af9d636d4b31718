package mocks

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, evt *security.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
