package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
)

type getBlockHandler struct {
	logger  *logrus.Logger
	blocker gatekeeper.Blocker
}

func NewGetBlockHandler(logger *logrus.Logger, blocker gatekeeper.Blocker) Handler {
	return &getBlockHandler{
		logger:  logger,
		blocker: blocker,
	}
}

// Handle @Summary Get a block entry
// @Tags Security
// @Produce json
// @Param ip path string true "Client IP"
// @Success 200 {object} security.BlockEntry
// @Failure 404 {object} map[string]interface{} "Block not found"
// @Router /api/v1/security/blocks/{ip} [get]
func (h *getBlockHandler) Handle(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if ip == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ip is required"})
	}

	entry, err := h.blocker.Lookup(c.UserContext(), ip)
	if err != nil {
		if errors.Is(err, security.ErrBlockNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "block not found"})
		}
		h.logger.WithField("ip", ip).WithError(err).Error("failed to get block")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get block"})
	}
	return c.Status(fiber.StatusOK).JSON(entry)
}
