package geo

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/rimareum/gatekeeper/pkg/infra/cache"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = time.Hour

type Source string

const (
	SourceDisabled Source = "disabled"
	SourceSkipped  Source = "skipped"
	SourceCache    Source = "cache"
	SourceLookup   Source = "lookup"
	SourceFailed   Source = "failed"
)

type Verdict struct {
	Allowed bool
	Country string
	Source  Source
}

//go:generate mockery --name=PolicyFilter --dir=. --output=./mocks --filename=policy_filter_mock.go --case=underscore --with-expecter
type PolicyFilter interface {
	Check(ctx context.Context, ip string) Verdict
	AllowedCountries() []string
}

type Filter struct {
	logger   *logrus.Logger
	resolver Resolver
	allowed  map[string]struct{}
	codes    []string
	cache    *cache.TTLMap[string]
	timeout  time.Duration
	group    singleflight.Group
}

type FilterOption func(*Filter)

// WithTimeout bounds each shared lookup, whoever started it.
func WithTimeout(d time.Duration) FilterOption {
	return func(f *Filter) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithCache(c *cache.TTLMap[string]) FilterOption {
	return func(f *Filter) {
		f.cache = c
	}
}

func NewFilter(logger *logrus.Logger, resolver Resolver, allowedCountries []string, opts ...FilterOption) *Filter {
	f := &Filter{
		logger:   logger,
		resolver: resolver,
		allowed:  make(map[string]struct{}, len(allowedCountries)),
		cache:    cache.NewTTLMap[string](DefaultCacheTTL),
		timeout:  DefaultTimeout,
	}
	for _, code := range allowedCountries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := f.allowed[code]; !dup {
			f.allowed[code] = struct{}{}
			f.codes = append(f.codes, code)
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) AllowedCountries() []string {
	return append([]string(nil), f.codes...)
}

// Check fails open: an empty allow-list, a non-public address or any
// resolver failure allows the request.
func (f *Filter) Check(ctx context.Context, ip string) Verdict {
	v := f.check(ctx, ip)
	prometheus.GeoLookups.WithLabelValues(string(v.Source)).Inc()
	return v
}

func (f *Filter) check(ctx context.Context, ip string) Verdict {
	if len(f.allowed) == 0 || f.resolver == nil {
		return Verdict{Allowed: true, Source: SourceDisabled}
	}
	if !isPublic(ip) {
		return Verdict{Allowed: true, Source: SourceSkipped}
	}
	if country, ok := f.cache.Get(ip); ok {
		return f.verdict(country, SourceCache)
	}

	// the lookup is shared, so it must outlive the caller that started it
	ch := f.group.DoChan(ip, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		country, err := f.resolver.ResolveCountry(lookupCtx, ip)
		if err != nil {
			return "", err
		}
		f.cache.Set(ip, country)
		return country, nil
	})

	select {
	case <-ctx.Done():
		f.logger.WithField("ip", ip).Debug("geo lookup abandoned by caller")
		return Verdict{Allowed: true, Source: SourceFailed}
	case res := <-ch:
		if res.Err != nil {
			f.logger.WithFields(logrus.Fields{
				"ip":    ip,
				"error": res.Err.Error(),
			}).Warn("geo lookup failed, allowing request")
			return Verdict{Allowed: true, Source: SourceFailed}
		}
		country, _ := res.Val.(string)
		return f.verdict(country, SourceLookup)
	}
}

func (f *Filter) verdict(country string, source Source) Verdict {
	_, ok := f.allowed[strings.ToUpper(country)]
	return Verdict{Allowed: ok, Country: country, Source: source}
}

func isPublic(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !(parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() ||
		parsed.IsLinkLocalUnicast() || parsed.IsLinkLocalMulticast() || parsed.IsMulticast())
}
