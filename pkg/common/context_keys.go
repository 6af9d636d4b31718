package common

import "context"

type contextKey string

const (
	TraceIdKey     contextKey = "trace_id"
	FingerprintKey contextKey = "fingerprint"
	DecisionKey    contextKey = "decision"
	ClaimsKey      contextKey = "admin_claims"
)

// TraceID returns the trace id carried by ctx, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIdKey).(string)
	return id
}
