package security

// Signals is the per-dimension breakdown of the composite score.
type Signals struct {
	Rate     float64 `json:"rate_risk"`
	Content  float64 `json:"content_risk"`
	Behavior float64 `json:"behavior_risk"`
}

// Total combines the signals with max: one strong signal is enough to
// block, weak signals on several dimensions do not compound.
func (s Signals) Total() float64 {
	total := s.Rate
	if s.Content > total {
		total = s.Content
	}
	if s.Behavior > total {
		total = s.Behavior
	}
	return total
}

// Decision is the gatekeeper outcome for one request.
type Decision struct {
	Allowed    bool     `json:"allowed"`
	RiskScore  float64  `json:"risk_score"`
	Reasons    []string `json:"reasons"`
	IP         string   `json:"ip"`
	ThreatType string   `json:"threat_type"`
	Signals    *Signals `json:"signals,omitempty"`
	Matches    []string `json:"matches,omitempty"`
	Country    string   `json:"country,omitempty"`
}

func Allow(ip string, risk float64) *Decision {
	return &Decision{Allowed: true, RiskScore: risk, Reasons: []string{}, IP: ip}
}

func Deny(ip string, risk float64, reasons ...string) *Decision {
	return &Decision{Allowed: false, RiskScore: risk, Reasons: reasons, IP: ip}
}
