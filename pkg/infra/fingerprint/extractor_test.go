package fingerprint_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded first entry", " 1.2.3.4 , 10.0.0.1", "5.6.7.8", "9.9.9.9:1234", "1.2.3.4"},
		{"real ip fallback", "", " 5.6.7.8 ", "9.9.9.9:1234", "5.6.7.8"},
		{"empty forwarded entry falls through", " ,10.0.0.1", "5.6.7.8", "", "5.6.7.8"},
		{"peer address port stripped", "", "", "9.9.9.9:1234", "9.9.9.9"},
		{"ipv6 peer", "", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"peer without port", "", "", "9.9.9.9", "9.9.9.9"},
		{"nothing known", "", "", "", fingerprint.UnknownIP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fingerprint.ResolveClientIP(tt.forwarded, tt.realIP, tt.remoteAddr))
		})
	}
}

func TestFromRequest_DefaultsMissingFields(t *testing.T) {
	ex := fingerprint.NewExtractor(fingerprint.WithClock(fixedClock))

	fp := ex.FromRequest(fingerprint.Request{})

	assert.Equal(t, fingerprint.UnknownIP, fp.ClientIP)
	assert.Empty(t, fp.UserAgent)
	assert.Empty(t, fp.Path)
	assert.Empty(t, fp.Method)
	assert.Empty(t, fp.Referer)
	assert.Zero(t, fp.ContentLength)
	assert.Equal(t, fixedClock(), fp.Timestamp)
}

func TestFromRequest_PopulatesFields(t *testing.T) {
	ex := fingerprint.NewExtractor(fingerprint.WithClock(fixedClock))
	header := http.Header{}
	header.Set("X-Forwarded-For", "1.2.3.4")
	header.Set("User-Agent", chromeUA)
	header.Set("Referer", "https://rimareum.com/shop")
	header.Set("Content-Length", "42")

	fp := ex.FromRequest(fingerprint.Request{
		RemoteAddr: "10.0.0.1:5555",
		Method:     "post",
		Path:       "/cart",
		Header:     header,
	})

	assert.Equal(t, "1.2.3.4", fp.ClientIP)
	assert.Equal(t, "POST", fp.Method)
	assert.Equal(t, "/cart", fp.Path)
	assert.Equal(t, 42, fp.ContentLength)
	assert.Equal(t, "https://rimareum.com/shop", fp.Referer)
	assert.Equal(t, "Computer", fp.Device)
}

func TestFromRequest_MalformedContentLength(t *testing.T) {
	ex := fingerprint.NewExtractor()
	header := http.Header{}
	header.Set("Content-Length", "lots")

	fp := ex.FromRequest(fingerprint.Request{Header: header})
	assert.Zero(t, fp.ContentLength)
}

func TestFromRequest_TruncatesLongFields(t *testing.T) {
	ex := fingerprint.NewExtractor(fingerprint.WithMaxFieldLength(16))
	header := http.Header{}
	header.Set("User-Agent", strings.Repeat("a", 100))

	fp := ex.FromRequest(fingerprint.Request{Path: "/" + strings.Repeat("p", 100), Header: header})
	assert.Len(t, fp.UserAgent, 16)
	assert.Len(t, fp.Path, 16)
}

func TestFromFiber(t *testing.T) {
	ex := fingerprint.NewExtractor(fingerprint.WithClock(fixedClock))
	app := fiber.New()
	app.All("/*", func(c *fiber.Ctx) error {
		return c.JSON(ex.FromFiber(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/products?page=2", nil)
	req.Header.Set("X-Real-IP", "5.6.7.8")
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Referer", "https://rimareum.com/shop")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fp security.Fingerprint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fp))
	assert.Equal(t, "5.6.7.8", fp.ClientIP)
	assert.Equal(t, "/products", fp.Path)
	assert.Equal(t, "page=2", fp.Query)
	assert.Equal(t, http.MethodGet, fp.Method)
	assert.Equal(t, chromeUA, fp.UserAgent)
	assert.Equal(t, "https://rimareum.com/shop", fp.Referer)
	assert.True(t, fixedClock().Equal(fp.Timestamp))
}

func TestFromRequest_Query(t *testing.T) {
	ex := fingerprint.NewExtractor()
	fp := ex.FromRequest(fingerprint.Request{Path: "/search", Query: "?q=union+select"})
	assert.Equal(t, "q=union+select", fp.Query)
	assert.Equal(t, "/search?q=union+select  ", fp.InspectedContent())
}
