package rules_test

import (
	"strings"
	"testing"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

func newScorer(t *testing.T) *rules.Scorer {
	t.Helper()
	s, err := rules.NewScorer(rules.Config{})
	require.NoError(t, err)
	return s
}

func TestCatalogSize(t *testing.T) {
	s := newScorer(t)
	assert.GreaterOrEqual(t, len(s.Rules()), 90)

	names := map[string]struct{}{}
	for _, r := range s.Rules() {
		_, dup := names[r.Name]
		assert.False(t, dup, "duplicate rule name %s", r.Name)
		names[r.Name] = struct{}{}
	}
}

func TestScore_BenignTrafficIsZero(t *testing.T) {
	s := newScorer(t)
	paths := []string{"/products", "/products/42", "/cart", "/checkout", "/api/products?page=2&sort=price", "/"}
	for _, p := range paths {
		res := s.Score(&security.Fingerprint{Path: p, UserAgent: chromeUA, Referer: "https://rimareum.com/shop"})
		assert.Zero(t, res.Score, "path %s matched %v", p, res.Matches)
		assert.Zero(t, res.ContentRisk(), p)
		assert.Empty(t, res.Honeypot, p)
	}
}

func TestScore_CoreAndExtendedWeights(t *testing.T) {
	s := newScorer(t)

	res := s.Score(&security.Fingerprint{Path: "/search?q=<script>", UserAgent: chromeUA})
	assert.Contains(t, res.Matches, "script_tag")
	assert.InDelta(t, 0.3, res.Score, 1e-9)

	res = s.Score(&security.Fingerprint{Path: "/", UserAgent: "sqlmap/1.7"})
	assert.Equal(t, []string{"scanner_sqlmap"}, res.Matches)
	assert.InDelta(t, 0.2, res.Score, 1e-9)
}

func TestScore_CaseInsensitive(t *testing.T) {
	s := newScorer(t)
	res := s.Score(&security.Fingerprint{Path: "/q?x=1 UNION   SELECT password"})
	assert.Contains(t, res.Matches, "union_select")
}

func TestScore_RefererIsInspected(t *testing.T) {
	s := newScorer(t)
	res := s.Score(&security.Fingerprint{Path: "/products", UserAgent: chromeUA, Referer: "javascript:alert(1)"})
	assert.Contains(t, res.Matches, "javascript_uri")
	assert.Contains(t, res.Matches, "alert_call")
	assert.InDelta(t, 0.6, res.Score, 1e-9)
}

func TestScore_Clamped(t *testing.T) {
	s := newScorer(t)
	res := s.Score(&security.Fingerprint{
		Path:      "/a?q=<script>alert(document.cookie)</script>eval(1)&f=../../etc/passwd",
		UserAgent: "powershell cmd.exe",
	})
	assert.Equal(t, 1.0, res.Score)
}

func TestScore_Honeypot(t *testing.T) {
	s := newScorer(t)
	res := s.Score(&security.Fingerprint{Path: "/.env", UserAgent: chromeUA})
	assert.Equal(t, "/.env", res.Honeypot)
	assert.InDelta(t, 0.8, res.Score, 1e-9)

	hp, ok := s.MatchHoneypot("/shop/WP-ADMIN/index.php")
	assert.True(t, ok)
	assert.Equal(t, "/wp-admin/", hp)

	_, ok = s.MatchHoneypot("/products")
	assert.False(t, ok)
}

func TestScore_BotKeywords(t *testing.T) {
	s := newScorer(t)
	res := s.Score(&security.Fingerprint{Path: "/products", UserAgent: "python-requests/2.31"})
	assert.Zero(t, res.Score)
	assert.Equal(t, []string{"python-requests"}, res.BotKeywords)
	assert.InDelta(t, 0.3, res.ContentRisk(), 1e-9)

	res = s.Score(&security.Fingerprint{Path: "/products", UserAgent: "Scrapy spider crawler bot"})
	assert.Equal(t, 1.0, res.ContentRisk())
}

func TestScore_BoundedInput(t *testing.T) {
	s, err := rules.NewScorer(rules.Config{MaxInspectLength: 64})
	require.NoError(t, err)
	path := "/" + strings.Repeat("a", 200) + "<script>"
	res := s.Score(&security.Fingerprint{Path: path})
	assert.Zero(t, res.Score)
}

func TestScore_Deterministic(t *testing.T) {
	s := newScorer(t)
	fp := &security.Fingerprint{Path: "/x?a=' or 1=1 --", UserAgent: "nikto"}
	first := s.Score(fp)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(fp))
	}
}

func TestNewScorer_CustomCatalog(t *testing.T) {
	s, err := rules.NewScorer(rules.Config{
		CustomPatterns: []string{`rimareum-test-exploit`},
		HoneypotPaths:  []string{"/Secret-Admin"},
		BotUserAgents:  []string{"HeadlessChrome"},
	})
	require.NoError(t, err)

	res := s.Score(&security.Fingerprint{Path: "/x?RIMAREUM-TEST-EXPLOIT", UserAgent: "HeadlessChrome/120"})
	assert.Equal(t, []string{"custom_1"}, res.Matches)
	assert.Equal(t, []string{"headlesschrome"}, res.BotKeywords)

	_, ok := s.MatchHoneypot("/secret-admin/login")
	assert.True(t, ok)

	_, err = rules.NewScorer(rules.Config{CustomPatterns: []string{"(unclosed"}})
	assert.Error(t, err)
}
