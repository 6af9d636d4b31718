package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/infra/fingerprint"
	"github.com/rimareum/gatekeeper/pkg/middleware"
	"github.com/sirupsen/logrus"
)

type securityCheckHandler struct {
	logger    *logrus.Logger
	extractor fingerprint.Extractor
	evaluator gatekeeper.Evaluator
}

func NewSecurityCheckHandler(
	logger *logrus.Logger,
	extractor fingerprint.Extractor,
	evaluator gatekeeper.Evaluator,
) Handler {
	return &securityCheckHandler{
		logger:    logger,
		extractor: extractor,
		evaluator: evaluator,
	}
}

// Handle returns the decision taken for the calling client. The gatekeeper
// middleware normally evaluates first; when it did not, the request is
// evaluated here.
func (h *securityCheckHandler) Handle(c *fiber.Ctx) error {
	decision, ok := middleware.DecisionFrom(c)
	if !ok {
		decision = h.evaluator.Evaluate(c.UserContext(), h.extractor.FromFiber(c))
	}
	return c.Status(fiber.StatusOK).JSON(decision)
}
