package geo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rimareum/gatekeeper/pkg/infra/httpx"
	"github.com/valyala/fastjson"
)

const (
	DefaultURLTemplate = "https://ipapi.co/%s/country/"
	DefaultTimeout     = 5 * time.Second

	maxBodySize = 4096
)

var ErrUnresolved = errors.New("country could not be resolved")

//go:generate mockery --name=Resolver --dir=. --output=./mocks --filename=resolver_mock.go --case=underscore --with-expecter
type Resolver interface {
	ResolveCountry(ctx context.Context, ip string) (string, error)
}

// HTTPResolver asks an IP-to-country web service. No retries.
type HTTPResolver struct {
	client      httpx.Client
	urlTemplate string
	timeout     time.Duration
}

func NewHTTPResolver(client httpx.Client, urlTemplate string, timeout time.Duration) *HTTPResolver {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPResolver{
		client:      client,
		urlTemplate: urlTemplate,
		timeout:     timeout,
	}
}

func (r *HTTPResolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(r.urlTemplate, ip), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geo request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, application/json")
	req.Header.Set("Accept-Encoding", httpx.AcceptEncoding)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geo lookup for %s failed: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo lookup for %s returned status %d", ip, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read geo response: %w", err)
	}
	return parseCountry(body)
}

// parseCountry accepts a bare country code or a JSON object carrying one of
// country_code, countryCode or country.
func parseCountry(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		v, err := fastjson.ParseBytes(body)
		if err != nil {
			return "", fmt.Errorf("invalid geo response: %w", err)
		}
		for _, key := range []string{"country_code", "countryCode", "country"} {
			if code := string(v.GetStringBytes(key)); code != "" {
				return normalizeCode(code)
			}
		}
		return "", ErrUnresolved
	}
	return normalizeCode(string(body))
}

func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrUnresolved, code)
	}
	return code, nil
}

// BreakerResolver stops calling the inner resolver while the upstream
// service keeps failing.
type BreakerResolver struct {
	inner   Resolver
	breaker httpx.CircuitBreaker
}

func NewBreakerResolver(inner Resolver, breaker httpx.CircuitBreaker) *BreakerResolver {
	return &BreakerResolver{inner: inner, breaker: breaker}
}

func (r *BreakerResolver) ResolveCountry(ctx context.Context, ip string) (string, error) {
	var country string
	err := r.breaker.Execute(func() error {
		var err error
		country, err = r.inner.ResolveCountry(ctx, ip)
		return err
	})
	if err != nil {
		return "", err
	}
	return country, nil
}
