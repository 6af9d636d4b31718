package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/handlers/http/response"
	"github.com/sirupsen/logrus"
)

type listBlocksHandler struct {
	logger  *logrus.Logger
	blocker gatekeeper.Blocker
}

func NewListBlocksHandler(logger *logrus.Logger, blocker gatekeeper.Blocker) Handler {
	return &listBlocksHandler{
		logger:  logger,
		blocker: blocker,
	}
}

// Handle @Summary List active blocks
// @Tags Security
// @Produce json
// @Success 200 {object} response.BlocksOutput
// @Router /api/v1/security/blocks [get]
func (h *listBlocksHandler) Handle(c *fiber.Ctx) error {
	blocks, err := h.blocker.List(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to list blocks")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list blocks"})
	}
	return c.Status(fiber.StatusOK).JSON(response.BlocksOutput{
		Blocks: blocks,
		Count:  len(blocks),
	})
}
