package common

import "time"

const (
	TraceIDHeader   = "X-Trace-Id"
	RiskScoreHeader = "X-Risk-Score"

	BlockedMessage = "Request blocked by security system"

	DefaultEventsLimit = 100
	MaxEventsLimit     = 1000

	ShutdownTimeout = 10 * time.Second
)
