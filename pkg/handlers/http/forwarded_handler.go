package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/common"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const DefaultUpstreamTimeout = 60 * time.Second

// hop-by-hop headers are never forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// UpstreamClient is satisfied by *fasthttp.Client.
type UpstreamClient interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

type ForwardedHandlerDeps struct {
	Logger      *logrus.Logger
	Client      UpstreamClient
	UpstreamURL string
	Timeout     time.Duration
}

type forwardedHandler struct {
	logger   *logrus.Logger
	client   UpstreamClient
	upstream *url.URL
	timeout  time.Duration
}

func NewUpstreamClient() *fasthttp.Client {
	return &fasthttp.Client{
		ReadTimeout:                   DefaultUpstreamTimeout,
		WriteTimeout:                  DefaultUpstreamTimeout,
		MaxConnsPerHost:               4096,
		MaxIdleConnDuration:           120 * time.Second,
		ReadBufferSize:                32768,
		WriteBufferSize:               32768,
		NoDefaultUserAgentHeader:      true,
		DisableHeaderNamesNormalizing: true,
		DisablePathNormalizing:        true,
	}
}

func NewForwardedHandler(deps ForwardedHandlerDeps) (Handler, error) {
	h := &forwardedHandler{
		logger:  deps.Logger,
		client:  deps.Client,
		timeout: deps.Timeout,
	}
	if h.client == nil {
		h.client = NewUpstreamClient()
	}
	if h.timeout <= 0 {
		h.timeout = DefaultUpstreamTimeout
	}
	if deps.UpstreamURL != "" {
		u, err := url.Parse(deps.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid upstream url scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return nil, errors.New("invalid upstream url: missing host")
		}
		h.upstream = u
	}
	return h, nil
}

func (h *forwardedHandler) Handle(c *fiber.Ctx) error {
	if h.upstream == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no upstream configured"})
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	targetURL := h.targetURL(c)
	h.buildRequest(req, c, targetURL)

	start := time.Now()
	err := h.client.DoTimeout(req, resp, h.timeout)
	if prometheus.Config.Enabled {
		prometheus.ProxyRequestLatency.WithLabelValues("upstream").
			Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"target":   targetURL,
			"trace_id": c.Locals(common.TraceIdKey),
		}).WithError(err).Error("upstream request failed")
		if errors.Is(err, fasthttp.ErrTimeout) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "upstream timeout"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream unavailable"})
	}

	status := resp.StatusCode()
	if status <= 0 || status >= 600 {
		h.logger.WithField("status", status).Error("invalid status code received from upstream")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	resp.Header.VisitAll(func(k, v []byte) {
		if isHopHeader(k) || bytes.EqualFold(k, []byte(fiber.HeaderContentLength)) {
			return
		}
		c.Response().Header.SetBytesKV(k, v)
	})
	c.Status(status)
	// resp is released on return, so the body must be copied.
	c.Response().SetBody(resp.Body())
	return nil
}

func (h *forwardedHandler) targetURL(c *fiber.Ctx) string {
	base := strings.TrimSuffix(h.upstream.String(), "/")
	return base + c.OriginalURL()
}

func (h *forwardedHandler) buildRequest(req *fasthttp.Request, c *fiber.Ctx, targetURL string) {
	req.SetRequestURI(targetURL)
	req.Header.SetMethod(c.Method())
	if body := c.Body(); len(body) > 0 {
		req.SetBodyRaw(body)
	}
	c.Request().Header.VisitAll(func(k, v []byte) {
		if isHopHeader(k) ||
			bytes.EqualFold(k, []byte(fiber.HeaderHost)) ||
			bytes.EqualFold(k, []byte(fiber.HeaderContentLength)) {
			return
		}
		req.Header.AddBytesKV(k, v)
	})
	req.Header.Set(fiber.HeaderXForwardedFor, forwardedFor(c))
	req.Header.Set(fiber.HeaderXForwardedHost, c.Hostname())
	req.Header.Set(fiber.HeaderXForwardedProto, c.Protocol())
	if traceID, ok := c.Locals(common.TraceIdKey).(string); ok && traceID != "" {
		req.Header.Set(common.TraceIDHeader, traceID)
	}
}

func forwardedFor(c *fiber.Ctx) string {
	prior := c.Get(fiber.HeaderXForwardedFor)
	if prior == "" {
		return c.IP()
	}
	return prior + ", " + c.IP()
}

func isHopHeader(k []byte) bool {
	for _, h := range hopHeaders {
		if bytes.EqualFold(k, []byte(h)) {
			return true
		}
	}
	return false
}
