package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/common"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/fingerprint"
	"github.com/sirupsen/logrus"
)

const maintenanceMessage = "Platform in maintenance mode"

// BlockedResponse is the body sent with a 403 denial.
type BlockedResponse struct {
	Error     string   `json:"error"`
	Reasons   []string `json:"reasons"`
	RiskScore float64  `json:"risk_score"`
	Support   string   `json:"support"`
}

type gatekeeperMiddleware struct {
	logger    *logrus.Logger
	extractor fingerprint.Extractor
	evaluator gatekeeper.Evaluator
	bypass    []string
	support   string
}

func NewGatekeeperMiddleware(
	logger *logrus.Logger,
	extractor fingerprint.Extractor,
	evaluator gatekeeper.Evaluator,
	bypassPaths []string,
	supportMail string,
) Middleware {
	return &gatekeeperMiddleware{
		logger:    logger,
		extractor: extractor,
		evaluator: evaluator,
		bypass:    bypassPaths,
		support:   fmt.Sprintf("Contact %s if you believe this is an error", supportMail),
	}
}

func (m *gatekeeperMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, done := DecisionFrom(c); done || m.bypassed(c.Path()) {
			return c.Next()
		}

		fp := m.extractor.FromFiber(c)
		decision := m.evaluator.Evaluate(c.UserContext(), fp)
		c.Locals(common.FingerprintKey, fp)
		c.Locals(common.DecisionKey, decision)
		c.Set(common.RiskScoreHeader, strconv.FormatFloat(decision.RiskScore, 'f', 2, 64))

		if decision.Allowed {
			return c.Next()
		}

		m.logger.WithFields(logrus.Fields{
			"ip":          decision.IP,
			"path":        fp.Path,
			"threat_type": decision.ThreatType,
			"risk_score":  decision.RiskScore,
			"trace_id":    c.Locals(common.TraceIdKey),
		}).Info("request denied by gatekeeper")

		if decision.ThreatType == security.ThreatMaintenance {
			return c.Status(fiber.StatusServiceUnavailable).JSON(BlockedResponse{
				Error:     maintenanceMessage,
				Reasons:   decision.Reasons,
				RiskScore: decision.RiskScore,
				Support:   m.support,
			})
		}
		return c.Status(fiber.StatusForbidden).JSON(BlockedResponse{
			Error:     common.BlockedMessage,
			Reasons:   decision.Reasons,
			RiskScore: decision.RiskScore,
			Support:   m.support,
		})
	}
}

// bypassed matches system routes exactly or on a segment boundary. Paths
// that could be rewritten into another route upstream never match.
func (m *gatekeeperMiddleware) bypassed(path string) bool {
	if !canonicalPath(path) {
		return false
	}
	for _, p := range m.bypass {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// canonicalPath rejects dot segments, doubled slashes, backslashes,
// matrix parameters and percent escapes.
func canonicalPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.ContainsAny(path, "\\%;") ||
		strings.Contains(path, "//") {
		return false
	}
	for _, seg := range strings.Split(path[1:], "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// DecisionFrom returns the decision stored by the gatekeeper middleware.
func DecisionFrom(c *fiber.Ctx) (*security.Decision, bool) {
	d, ok := c.Locals(common.DecisionKey).(*security.Decision)
	return d, ok && d != nil
}
