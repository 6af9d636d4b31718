package fingerprint

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

const (
	UnknownIP = "unknown"

	DefaultMaxFieldLength = 4096
)

// Request is a transport-neutral view of an inbound request.
type Request struct {
	RemoteAddr    string
	Method        string
	Path          string
	Query         string
	Header        http.Header
	ContentLength int
}

//go:generate mockery --name=Extractor --dir=. --output=./mocks --filename=extractor_mock.go --case=underscore --with-expecter
type Extractor interface {
	FromFiber(c *fiber.Ctx) *security.Fingerprint
	FromRequest(r Request) *security.Fingerprint
}

type Option func(*extractor)

func WithClock(now func() time.Time) Option {
	return func(e *extractor) {
		e.now = now
	}
}

func WithMaxFieldLength(n int) Option {
	return func(e *extractor) {
		if n > 0 {
			e.maxFieldLength = n
		}
	}
}

type extractor struct {
	now            func() time.Time
	maxFieldLength int
}

func NewExtractor(opts ...Option) Extractor {
	e := &extractor{
		now:            time.Now,
		maxFieldLength: DefaultMaxFieldLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *extractor) FromFiber(c *fiber.Ctx) *security.Fingerprint {
	contentLength := c.Request().Header.ContentLength()
	if contentLength < 0 {
		contentLength = 0
	}
	return e.build(
		ResolveClientIP(c.Get(fiber.HeaderXForwardedFor), c.Get("X-Real-IP"), c.IP()),
		c.Get(fiber.HeaderUserAgent),
		c.Path(),
		string(c.Request().URI().QueryString()),
		c.Method(),
		contentLength,
		c.Get(fiber.HeaderReferer),
		c.Get(fiber.HeaderAccept),
	)
}

func (e *extractor) FromRequest(r Request) *security.Fingerprint {
	header := r.Header
	if header == nil {
		header = http.Header{}
	}
	contentLength := r.ContentLength
	if contentLength <= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(header.Get("Content-Length"))); err == nil && n > 0 {
			contentLength = n
		} else {
			contentLength = 0
		}
	}
	return e.build(
		ResolveClientIP(header.Get("X-Forwarded-For"), header.Get("X-Real-IP"), r.RemoteAddr),
		header.Get("User-Agent"),
		r.Path,
		strings.TrimPrefix(r.Query, "?"),
		r.Method,
		contentLength,
		header.Get("Referer"),
		header.Get("Accept"),
	)
}

func (e *extractor) build(ip, ua, path, query, method string, contentLength int, referer, accept string) *security.Fingerprint {
	fp := &security.Fingerprint{
		ClientIP:      ip,
		UserAgent:     truncate(strings.TrimSpace(ua), e.maxFieldLength),
		Path:          truncate(path, e.maxFieldLength),
		Query:         truncate(query, e.maxFieldLength),
		Method:        strings.ToUpper(strings.TrimSpace(method)),
		ContentLength: contentLength,
		Referer:       truncate(strings.TrimSpace(referer), e.maxFieldLength),
		Accept:        truncate(strings.TrimSpace(accept), e.maxFieldLength),
		Timestamp:     e.now(),
	}
	if info := ParseUserAgent(fp.UserAgent); info != nil {
		fp.Device = info.Device
		fp.Browser = info.Browser
		fp.OS = info.OS
	}
	return fp
}

// ResolveClientIP applies X-Forwarded-For, X-Real-IP, then the peer address.
func ResolveClientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first := forwardedFor
		if idx := strings.IndexByte(first, ','); idx >= 0 {
			first = first[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP = strings.TrimSpace(realIP); realIP != "" {
		return realIP
	}
	if remoteAddr = strings.TrimSpace(remoteAddr); remoteAddr != "" {
		return stripPort(remoteAddr)
	}
	return UnknownIP
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
