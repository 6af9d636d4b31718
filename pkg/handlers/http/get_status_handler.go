package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/handlers/http/response"
	"github.com/rimareum/gatekeeper/pkg/infra/auditlogs"
	"github.com/rimareum/gatekeeper/pkg/version"
	"github.com/sirupsen/logrus"
)

type SettingsProvider interface {
	Settings() gatekeeper.Settings
}

type getStatusHandler struct {
	logger   *logrus.Logger
	settings SettingsProvider
	blocker  gatekeeper.Blocker
	reader   auditlogs.Reader
}

func NewGetStatusHandler(
	logger *logrus.Logger,
	settings SettingsProvider,
	blocker gatekeeper.Blocker,
	reader auditlogs.Reader,
) Handler {
	return &getStatusHandler{
		logger:   logger,
		settings: settings,
		blocker:  blocker,
		reader:   reader,
	}
}

// Handle @Summary Get security status
// @Description Returns maintenance flag, block and event counts, and thresholds
// @Tags Security
// @Produce json
// @Success 200 {object} response.StatusOutput
// @Router /api/v1/security/status [get]
func (h *getStatusHandler) Handle(c *fiber.Ctx) error {
	active, err := h.blocker.Count(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to count active blocks")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read block store"})
	}
	recorded, err := h.reader.Count(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to count security events")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read security events"})
	}

	settings := h.settings.Settings()
	status := "active"
	if settings.Maintenance {
		status = "maintenance"
	}
	return c.Status(fiber.StatusOK).JSON(response.StatusOutput{
		Status:         status,
		Version:        version.Version,
		ActiveBlocks:   active,
		RecordedEvents: recorded,
		Settings:       settings,
	})
}
