package mocks

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type Auditor struct {
	mock.Mock
}

func (m *Auditor) Record(ctx context.Context, evt *security.Event) {
	m.Called(ctx, evt)
}
