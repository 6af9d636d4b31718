package auditlogs

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
)

// Notifier is called inline for HIGH severity events.
//
//go:generate mockery --name=Notifier --dir=. --output=./mocks --filename=notifier_mock.go --case=underscore
type Notifier interface {
	Notify(ctx context.Context, evt *security.Event) error
}

type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, evt *security.Event) error {
	n.logger.WithFields(logrus.Fields{
		"alert":       true,
		"event_id":    evt.ID.String(),
		"ip":          evt.IP,
		"path":        evt.Path,
		"threat_type": evt.ThreatType,
		"risk_score":  evt.RiskScore,
		"blocked":     evt.Blocked,
	}).Error("high severity security event")
	return nil
}
