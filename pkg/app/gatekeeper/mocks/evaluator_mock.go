package mocks

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type Evaluator struct {
	mock.Mock
}

func (m *Evaluator) Evaluate(ctx context.Context, fp *security.Fingerprint) *security.Decision {
	args := m.Called(ctx, fp)
	d, _ := args.Get(0).(*security.Decision)
	return d
}
