package ratelimit

import (
	"context"
	"time"
)

const (
	MinuteRisk = 0.9
	HourRisk   = 0.8

	DefaultPerMinute = 5
	DefaultPerHour   = 100
)

type Counts struct {
	Minute int64 `json:"minute"`
	Hour   int64 `json:"hour"`
}

type Limits struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
}

func (l Limits) withDefaults() Limits {
	if l.PerMinute <= 0 {
		l.PerMinute = DefaultPerMinute
	}
	if l.PerHour <= 0 {
		l.PerHour = DefaultPerHour
	}
	return l
}

// Risk maps request counts to a rate risk: MinuteRisk above the per-minute
// limit, else HourRisk above the per-hour limit, else 0.
func (l Limits) Risk(c Counts) float64 {
	l = l.withDefaults()
	switch {
	case c.Minute > int64(l.PerMinute):
		return MinuteRisk
	case c.Hour > int64(l.PerHour):
		return HourRisk
	default:
		return 0
	}
}

// Counter records one request for a key and returns the counts over the
// trailing minute and hour, the current request included.
//
//go:generate mockery --name=Counter --dir=. --output=./mocks --filename=counter_mock.go --case=underscore --with-expecter
type Counter interface {
	Hit(ctx context.Context, key string, now time.Time) (Counts, error)
}
