package security

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// SeverityFor classifies a risk score for the audit record.
func SeverityFor(riskScore float64) Severity {
	switch {
	case riskScore > 0.8:
		return SeverityHigh
	case riskScore > 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

const (
	ThreatSecurityCheck   = "SECURITY_CHECK"
	ThreatMaintenance     = "MAINTENANCE"
	ThreatBlockedIP       = "BLOCKED_IP"
	ThreatGeoBlock        = "GEO_BLOCK"
	ThreatHoneypot        = "HONEYPOT"
	ThreatHighRisk        = "HIGH_RISK"
	ThreatGatekeeperFault = "GATEKEEPER_FAULT"
	ThreatManualReport    = "MANUAL_REPORT"
)

// Event is the immutable audit record of one decision.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	TraceID    string                 `json:"trace_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	IP         string                 `json:"ip"`
	UserAgent  string                 `json:"user_agent"`
	Path       string                 `json:"path"`
	Method     string                 `json:"method"`
	ThreatType string                 `json:"threat_type"`
	Severity   Severity               `json:"severity"`
	Blocked    bool                   `json:"blocked"`
	RiskScore  float64                `json:"risk_score"`
	Reasons    []string               `json:"reasons,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// NewEvent builds the audit record for a decision taken on fp.
func NewEvent(fp *Fingerprint, d *Decision, threatType string, now time.Time) *Event {
	details := map[string]interface{}{
		"risk_score": d.RiskScore,
	}
	if d.Signals != nil {
		details["rate_risk"] = d.Signals.Rate
		details["content_risk"] = d.Signals.Content
		details["behavior_risk"] = d.Signals.Behavior
	}
	if len(d.Matches) > 0 {
		details["matches"] = d.Matches
	}
	if d.Country != "" {
		details["country"] = d.Country
	}
	if fp.Device != "" {
		details["device"] = fp.Device
		details["browser"] = fp.Browser
		details["os"] = fp.OS
	}
	return &Event{
		ID:         uuid.New(),
		Timestamp:  now.UTC(),
		IP:         fp.ClientIP,
		UserAgent:  fp.UserAgent,
		Path:       fp.Path,
		Method:     fp.Method,
		ThreatType: threatType,
		Severity:   SeverityFor(d.RiskScore),
		Blocked:    !d.Allowed,
		RiskScore:  d.RiskScore,
		Reasons:    append([]string(nil), d.Reasons...),
		Details:    details,
	}
}

//go:generate mockery --name=EventRepository --dir=. --output=./mocks --filename=event_repository_mock.go --case=underscore
type EventRepository interface {
	Save(ctx context.Context, event *Event) error
	Recent(ctx context.Context, limit int) ([]*Event, error)
	Count(ctx context.Context) (int64, error)
}
