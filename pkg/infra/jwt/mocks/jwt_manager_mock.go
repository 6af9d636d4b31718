package mocks

import (
	"fmt"

	"github.com/rimareum/gatekeeper/pkg/infra/jwt"
	"github.com/stretchr/testify/mock"
)

type Manager struct {
	mock.Mock
}

func (m *Manager) CreateToken(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *Manager) ValidateToken(tokenString string) error {
	args := m.Called(tokenString)
	return args.Error(0)
}

func (m *Manager) DecodeToken(tokenString string) (*jwt.Claims, error) {
	args := m.Called(tokenString)
	claims, ok := args.Get(0).(*jwt.Claims)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected *jwt.Claims, got %T", args.Get(0))
	}
	return claims, args.Error(1)
}
