package request

import (
	"fmt"
	"net"
	"strings"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

type ReportEventRequest struct {
	IP         string                 `json:"ip"`
	Path       string                 `json:"path,omitempty"`
	Method     string                 `json:"method,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	ThreatType string                 `json:"threat_type,omitempty"`
	Severity   security.Severity      `json:"severity,omitempty"`
	Blocked    bool                   `json:"blocked,omitempty"`
	RiskScore  float64                `json:"risk_score,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (r *ReportEventRequest) Validate() error {
	r.IP = strings.TrimSpace(r.IP)
	if r.IP == "" {
		return fmt.Errorf("ip is required")
	}
	if net.ParseIP(r.IP) == nil {
		return fmt.Errorf("invalid ip address %q", r.IP)
	}

	if strings.TrimSpace(r.ThreatType) == "" {
		r.ThreatType = security.ThreatManualReport
	}
	r.ThreatType = strings.ToUpper(strings.TrimSpace(r.ThreatType))

	// Default severity for operator reports
	if r.Severity == "" {
		r.Severity = security.SeverityMedium
	}
	r.Severity = security.Severity(strings.ToUpper(string(r.Severity)))
	if !r.Severity.Valid() {
		return fmt.Errorf("severity must be one of LOW, MEDIUM, HIGH")
	}

	if r.RiskScore < 0 || r.RiskScore > 1 {
		return fmt.Errorf("risk_score must be between 0 and 1")
	}
	return nil
}
