package auditlogs

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
)

type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string {
	return SinkLog
}

func (s *LogSink) Write(_ context.Context, evt *security.Event) error {
	entry := s.logger.WithFields(logrus.Fields{
		"event_id":    evt.ID.String(),
		"trace_id":    evt.TraceID,
		"ip":          evt.IP,
		"method":      evt.Method,
		"path":        evt.Path,
		"user_agent":  evt.UserAgent,
		"threat_type": evt.ThreatType,
		"severity":    string(evt.Severity),
		"blocked":     evt.Blocked,
		"risk_score":  evt.RiskScore,
		"reasons":     evt.Reasons,
		"details":     evt.Details,
	})
	if evt.Blocked {
		entry.Warn("security event")
		return nil
	}
	entry.Info("security event")
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
