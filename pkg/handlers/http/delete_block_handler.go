package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
)

type deleteBlockHandler struct {
	logger  *logrus.Logger
	blocker gatekeeper.Blocker
}

func NewDeleteBlockHandler(logger *logrus.Logger, blocker gatekeeper.Blocker) Handler {
	return &deleteBlockHandler{
		logger:  logger,
		blocker: blocker,
	}
}

// Handle @Summary Unblock an IP
// @Description Removes the block entry; behavioral history is kept
// @Tags Security
// @Param ip path string true "Client IP"
// @Success 204 "Block removed"
// @Failure 404 {object} map[string]interface{} "Block not found"
// @Router /api/v1/security/blocks/{ip} [delete]
func (h *deleteBlockHandler) Handle(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if ip == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ip is required"})
	}

	if err := h.blocker.Unblock(c.UserContext(), ip); err != nil {
		if errors.Is(err, security.ErrBlockNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "block not found"})
		}
		h.logger.WithField("ip", ip).WithError(err).Error("failed to delete block")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete block"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
