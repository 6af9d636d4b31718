package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rimareum/gatekeeper/pkg/common"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/handlers/http/request"
	"github.com/rimareum/gatekeeper/pkg/infra/auditlogs"
	"github.com/rimareum/gatekeeper/pkg/infra/jwt"
	"github.com/sirupsen/logrus"
)

type reportEventHandler struct {
	logger  *logrus.Logger
	auditor auditlogs.Auditor
	now     func() time.Time
}

func NewReportEventHandler(logger *logrus.Logger, auditor auditlogs.Auditor) Handler {
	return &reportEventHandler{
		logger:  logger,
		auditor: auditor,
		now:     time.Now,
	}
}

// Handle @Summary Report a security event
// @Description Records an operator-reported event through the audit sinks
// @Tags Security
// @Accept json
// @Produce json
// @Param event body request.ReportEventRequest true "Event data"
// @Success 202 {object} security.Event
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/v1/security/events [post]
func (h *reportEventHandler) Handle(c *fiber.Ctx) error {
	var req request.ReportEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	details := req.Details
	if details == nil {
		details = make(map[string]interface{})
	}
	if claims, ok := c.Locals(common.ClaimsKey).(*jwt.Claims); ok && claims != nil {
		details["reported_by"] = claims.Subject
	}

	evt := &security.Event{
		ID:         uuid.New(),
		TraceID:    common.TraceID(c.UserContext()),
		Timestamp:  h.now().UTC(),
		IP:         req.IP,
		UserAgent:  req.UserAgent,
		Path:       req.Path,
		Method:     req.Method,
		ThreatType: req.ThreatType,
		Severity:   req.Severity,
		Blocked:    req.Blocked,
		RiskScore:  req.RiskScore,
		Details:    details,
	}
	h.auditor.Record(c.UserContext(), evt)

	h.logger.WithFields(logrus.Fields{
		"ip":          evt.IP,
		"threat_type": evt.ThreatType,
		"severity":    evt.Severity,
	}).Info("security event reported")
	return c.Status(fiber.StatusAccepted).JSON(evt)
}
