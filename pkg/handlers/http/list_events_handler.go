package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/common"
	"github.com/rimareum/gatekeeper/pkg/handlers/http/response"
	"github.com/rimareum/gatekeeper/pkg/infra/auditlogs"
	"github.com/sirupsen/logrus"
)

type listEventsHandler struct {
	logger *logrus.Logger
	reader auditlogs.Reader
}

func NewListEventsHandler(logger *logrus.Logger, reader auditlogs.Reader) Handler {
	return &listEventsHandler{
		logger: logger,
		reader: reader,
	}
}

// Handle @Summary List security events
// @Description Returns recent security events, newest first
// @Tags Security
// @Produce json
// @Param limit query int false "Number of events (default 100, max 1000)"
// @Success 200 {object} response.EventsOutput
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Router /api/v1/security/events [get]
func (h *listEventsHandler) Handle(c *fiber.Ctx) error {
	limit := common.DefaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	if limit > common.MaxEventsLimit {
		limit = common.MaxEventsLimit
	}

	events, err := h.reader.Recent(c.UserContext(), limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list security events")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list security events"})
	}
	return c.Status(fiber.StatusOK).JSON(response.EventsOutput{
		Events: events,
		Count:  len(events),
	})
}
