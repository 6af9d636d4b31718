package mocks

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type Sink struct {
	mock.Mock
}

func (m *Sink) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Sink) Write(ctx context.Context, evt *security.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *Sink) Close() error {
	args := m.Called()
	return args.Error(0)
}
