package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

const DefaultMaxInspectLength = 4096

type Rule struct {
	Name     string
	Category string
	Weight   float64
	re       *regexp.Regexp
}

func (r *Rule) Match(content string) bool {
	return r.re.MatchString(content)
}

// Result is the static content assessment of one fingerprint.
type Result struct {
	Score       float64
	Matches     []string
	Honeypot    string
	BotKeywords []string
}

// ContentRisk adds the bot user-agent keyword weight to the rule score.
func (r *Result) ContentRisk() float64 {
	return clamp(r.Score + BotAgentWeight*float64(len(r.BotKeywords)))
}

type Config struct {
	// CustomPatterns are appended to the built-in catalog with the extended weight.
	CustomPatterns   []string
	HoneypotPaths    []string
	BotUserAgents    []string
	MaxInspectLength int
}

//go:generate mockery --name=ContentScorer --dir=. --output=./mocks --filename=content_scorer_mock.go --case=underscore --with-expecter
type ContentScorer interface {
	Score(fp *security.Fingerprint) *Result
	MatchHoneypot(path string) (string, bool)
}

type Scorer struct {
	rules            []*Rule
	honeypots        []string
	botAgents        []string
	maxInspectLength int
}

func NewScorer(cfg Config) (*Scorer, error) {
	s := &Scorer{
		honeypots:        mergeLower(defaultHoneypots, cfg.HoneypotPaths),
		botAgents:        mergeLower(defaultBotAgents, cfg.BotUserAgents),
		maxInspectLength: cfg.MaxInspectLength,
	}
	if s.maxInspectLength <= 0 {
		s.maxInspectLength = DefaultMaxInspectLength
	}

	for _, def := range coreCatalog {
		s.rules = append(s.rules, mustCompile(def, CoreWeight))
	}
	for _, def := range extendedCatalog {
		s.rules = append(s.rules, mustCompile(def, ExtendedWeight))
	}
	for i, pattern := range cfg.CustomPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid suspicious pattern %q: %w", pattern, err)
		}
		s.rules = append(s.rules, &Rule{
			Name:     fmt.Sprintf("custom_%d", i+1),
			Category: "custom",
			Weight:   ExtendedWeight,
			re:       re,
		})
	}
	return s, nil
}

func mustCompile(def definition, weight float64) *Rule {
	return &Rule{
		Name:     def.name,
		Category: def.category,
		Weight:   weight,
		re:       regexp.MustCompile("(?i)" + def.pattern),
	}
}

func (s *Scorer) Rules() []*Rule {
	return s.rules
}

// Score matches the request line, user agent and referer against the catalog. The sum of
// rule weights plus the honeypot weight is clamped to 1.0.
func (s *Scorer) Score(fp *security.Fingerprint) *Result {
	content := fp.InspectedContent()
	if len(content) > s.maxInspectLength {
		content = content[:s.maxInspectLength]
	}

	result := &Result{}
	var score float64
	for _, rule := range s.rules {
		if rule.Match(content) {
			score += rule.Weight
			result.Matches = append(result.Matches, rule.Name)
		}
	}
	if hp, ok := s.MatchHoneypot(fp.Path); ok {
		score += HoneypotWeight
		result.Honeypot = hp
	}
	result.Score = clamp(score)
	result.BotKeywords = s.matchBotAgents(fp.UserAgent)
	return result
}

func (s *Scorer) MatchHoneypot(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if len(path) > s.maxInspectLength {
		path = path[:s.maxInspectLength]
	}
	lower := strings.ToLower(path)
	for _, hp := range s.honeypots {
		if strings.Contains(lower, hp) {
			return hp, true
		}
	}
	return "", false
}

func (s *Scorer) matchBotAgents(userAgent string) []string {
	if userAgent == "" {
		return nil
	}
	lower := strings.ToLower(userAgent)
	var found []string
	for _, kw := range s.botAgents {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

func mergeLower(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
