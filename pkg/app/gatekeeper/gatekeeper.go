package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rimareum/gatekeeper/pkg/common"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/auditlogs"
	"github.com/rimareum/gatekeeper/pkg/infra/behavior"
	"github.com/rimareum/gatekeeper/pkg/infra/fingerprint"
	"github.com/rimareum/gatekeeper/pkg/infra/geo"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/rimareum/gatekeeper/pkg/infra/ratelimit"
	"github.com/rimareum/gatekeeper/pkg/infra/rules"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBlockThreshold = 0.7

	ReasonMaintenance = "maintenance"
	ReasonIPBlocked   = "IP blocked"
	ReasonHighRisk    = "High risk score"

	GeoBlockRisk = 0.9
	BlockedRisk  = 1.0
)

//go:generate mockery --name=Evaluator --dir=. --output=./mocks --filename=evaluator_mock.go --case=underscore --with-expecter
type Evaluator interface {
	Evaluate(ctx context.Context, fp *security.Fingerprint) *security.Decision
}

type Options struct {
	Maintenance    bool
	BlockThreshold float64
	BlockDuration  time.Duration
	Limits         ratelimit.Limits
	Now            func() time.Time
}

// Settings is the effective configuration reported by the status endpoint.
type Settings struct {
	Maintenance      bool             `json:"maintenance_mode"`
	BlockThreshold   float64          `json:"block_threshold"`
	BlockDuration    string           `json:"block_duration"`
	RateLimits       ratelimit.Limits `json:"rate_limits"`
	AllowedCountries []string         `json:"allowed_countries"`
}

// Gatekeeper runs the per-request decision pipeline. Every call to Evaluate
// records exactly one audit event.
type Gatekeeper struct {
	logger  *logrus.Logger
	scorer  rules.ContentScorer
	tracker behavior.Tracker
	counter ratelimit.Counter
	geo     geo.PolicyFilter
	blocker Blocker
	auditor auditlogs.Auditor
	opts    Options
}

func New(
	logger *logrus.Logger,
	scorer rules.ContentScorer,
	tracker behavior.Tracker,
	counter ratelimit.Counter,
	geoFilter geo.PolicyFilter,
	blocker Blocker,
	auditor auditlogs.Auditor,
	opts Options,
) *Gatekeeper {
	if opts.BlockThreshold <= 0 {
		opts.BlockThreshold = DefaultBlockThreshold
	}
	if opts.BlockDuration <= 0 {
		opts.BlockDuration = DefaultBlockDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if auditor == nil {
		auditor = auditlogs.Discard{}
	}
	return &Gatekeeper{
		logger:  logger,
		scorer:  scorer,
		tracker: tracker,
		counter: counter,
		geo:     geoFilter,
		blocker: blocker,
		auditor: auditor,
		opts:    opts,
	}
}

func (g *Gatekeeper) Settings() Settings {
	var allowed []string
	if g.geo != nil {
		allowed = g.geo.AllowedCountries()
	}
	return Settings{
		Maintenance:      g.opts.Maintenance,
		BlockThreshold:   g.opts.BlockThreshold,
		BlockDuration:    g.opts.BlockDuration.String(),
		RateLimits:       g.opts.Limits,
		AllowedCountries: allowed,
	}
}

// Evaluate decides whether the request described by fp may proceed. Internal
// faults fail open and are recorded as MEDIUM GATEKEEPER_FAULT events.
func (g *Gatekeeper) Evaluate(ctx context.Context, fp *security.Fingerprint) *security.Decision {
	if fp == nil {
		fp = &security.Fingerprint{ClientIP: fingerprint.UnknownIP}
	}
	if fp.ClientIP == "" {
		fp.ClientIP = fingerprint.UnknownIP
	}
	now := g.opts.Now()

	decision, fault := g.safeDecide(ctx, fp, now)

	evt := security.NewEvent(fp, decision, decision.ThreatType, now)
	evt.TraceID = common.TraceID(ctx)
	if fault != nil {
		evt.Severity = security.SeverityMedium
		evt.Details["fault"] = fault.Error()
	}
	g.record(ctx, evt)

	outcome := "allowed"
	if !decision.Allowed {
		outcome = "blocked"
	}
	prometheus.DecisionsTotal.WithLabelValues(outcome, decision.ThreatType).Inc()
	prometheus.RiskScore.Observe(decision.RiskScore)
	prometheus.ProxyRequestLatency.WithLabelValues("evaluation").
		Observe(float64(g.opts.Now().Sub(now).Microseconds()) / 1000)
	return decision
}

func (g *Gatekeeper) safeDecide(ctx context.Context, fp *security.Fingerprint, now time.Time) (d *security.Decision, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("panic recovered: %v", r)
			prometheus.Faults.Inc()
			g.logger.WithFields(logrus.Fields{
				"ip":   fp.ClientIP,
				"path": fp.Path,
			}).WithError(fault).Error("gatekeeper fault, allowing request")
			d = security.Allow(fp.ClientIP, 0)
			d.ThreatType = security.ThreatGatekeeperFault
		}
	}()
	return g.decide(ctx, fp, now), nil
}

// record keeps a failing auditor from undoing the decision.
func (g *Gatekeeper) record(ctx context.Context, evt *security.Event) {
	defer func() {
		if r := recover(); r != nil {
			prometheus.Faults.Inc()
			g.logger.WithFields(logrus.Fields{
				"ip":       evt.IP,
				"event_id": evt.ID.String(),
			}).Errorf("audit record panic recovered: %v", r)
		}
	}()
	g.auditor.Record(ctx, evt)
}

func (g *Gatekeeper) decide(ctx context.Context, fp *security.Fingerprint, now time.Time) *security.Decision {
	ip := fp.ClientIP

	if g.opts.Maintenance {
		d := security.Deny(ip, 0, ReasonMaintenance)
		d.ThreatType = security.ThreatMaintenance
		return d
	}

	if entry, ok := g.activeBlock(ctx, ip); ok {
		d := security.Deny(ip, BlockedRisk, ReasonIPBlocked, describeBlock(entry))
		d.ThreatType = security.ThreatBlockedIP
		return d
	}

	var country string
	if g.geo != nil {
		verdict := g.geo.Check(ctx, ip)
		country = verdict.Country
		if !verdict.Allowed {
			g.block(ctx, ip, security.BlockReasonGeo, "country "+verdict.Country)
			d := security.Deny(ip, GeoBlockRisk, fmt.Sprintf("Country not allowed: %s", verdict.Country))
			d.ThreatType = security.ThreatGeoBlock
			d.Country = country
			return d
		}
	}

	if hp, ok := g.scorer.MatchHoneypot(fp.Path); ok {
		g.block(ctx, ip, security.BlockReasonHoneypot, hp)
		d := security.Deny(ip, BlockedRisk, "Honeypot accessed: "+hp)
		d.ThreatType = security.ThreatHoneypot
		d.Country = country
		return d
	}

	return g.composite(ctx, fp, now, country)
}

func (g *Gatekeeper) composite(ctx context.Context, fp *security.Fingerprint, now time.Time, country string) *security.Decision {
	ip := fp.ClientIP
	var reasons []string

	var signals security.Signals
	counts, err := g.counter.Hit(ctx, ip, now)
	if err != nil {
		g.logger.WithField("ip", ip).WithError(err).Warn("rate counter unavailable, ignoring rate risk")
	} else {
		signals.Rate = g.opts.Limits.Risk(counts)
		switch signals.Rate {
		case ratelimit.MinuteRisk:
			reasons = append(reasons, "rate limit exceeded")
		case ratelimit.HourRisk:
			reasons = append(reasons, "hourly rate limit exceeded")
		}
	}

	result := g.scorer.Score(fp)
	signals.Content = result.ContentRisk()
	for _, m := range result.Matches {
		reasons = append(reasons, "rule:"+m)
	}
	for _, kw := range result.BotKeywords {
		reasons = append(reasons, "bot user agent: "+kw)
	}

	signals.Behavior = g.tracker.Track(ip, fp.Path, fp.Method, now)
	switch signals.Behavior {
	case behavior.BurstRisk:
		reasons = append(reasons, "request burst")
	case behavior.DiversityRisk:
		reasons = append(reasons, "path diversity")
	}

	total := signals.Total()
	var d *security.Decision
	if total > g.opts.BlockThreshold {
		st := g.tracker.Stats(ip, now)
		detail := fmt.Sprintf("%s [requests=%d recent=%d unique_paths=%d]",
			strings.Join(reasons, ", "), st.Total, st.Recent, st.UniquePaths)
		g.block(ctx, ip, security.BlockReasonHighRisk, detail)
		d = security.Deny(ip, total, append([]string{ReasonHighRisk}, reasons...)...)
		d.ThreatType = security.ThreatHighRisk
	} else {
		d = security.Allow(ip, total)
		d.ThreatType = security.ThreatSecurityCheck
	}
	d.Signals = &signals
	d.Matches = result.Matches
	d.Country = country
	return d
}

// activeBlock fails open when the store cannot be read.
func (g *Gatekeeper) activeBlock(ctx context.Context, ip string) (*security.BlockEntry, bool) {
	entry, err := g.blocker.Lookup(ctx, ip)
	if err == nil {
		return entry, true
	}
	if !errors.Is(err, security.ErrBlockNotFound) {
		g.logger.WithField("ip", ip).WithError(err).Warn("block store unavailable, treating ip as unblocked")
	}
	return nil, false
}

func (g *Gatekeeper) block(ctx context.Context, ip string, reason security.BlockReason, detail string) {
	if _, err := g.blocker.Block(ctx, ip, reason, detail, g.opts.BlockDuration); err != nil {
		g.logger.WithFields(logrus.Fields{
			"ip":     ip,
			"reason": reason,
		}).WithError(err).Warn("failed to store block entry")
	}
}

func describeBlock(entry *security.BlockEntry) string {
	if entry.Detail == "" {
		return fmt.Sprintf("blocked: %s", entry.Reason)
	}
	return fmt.Sprintf("blocked: %s (%s)", entry.Reason, entry.Detail)
}
