package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type Resolver struct {
	mock.Mock
}

func (m *Resolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	args := m.Called(ctx, ip)
	return args.String(0), args.Error(1)
}
