package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/handlers/http/request"
	"github.com/sirupsen/logrus"
)

type createBlockHandler struct {
	logger  *logrus.Logger
	blocker gatekeeper.Blocker
}

func NewCreateBlockHandler(logger *logrus.Logger, blocker gatekeeper.Blocker) Handler {
	return &createBlockHandler{
		logger:  logger,
		blocker: blocker,
	}
}

// Handle @Summary Block an IP
// @Description Adds a manual block; duration defaults to the configured block duration
// @Tags Security
// @Accept json
// @Produce json
// @Param block body request.CreateBlockRequest true "Block data"
// @Success 201 {object} security.BlockEntry
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/v1/security/blocks [post]
func (h *createBlockHandler) Handle(c *fiber.Ctx) error {
	var req request.CreateBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	duration, _ := req.ParsedDuration()

	entry, err := h.blocker.Block(c.UserContext(), req.IP, security.BlockReasonManual, req.Detail, duration)
	if err != nil {
		if errors.Is(err, security.ErrInvalidIP) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithField("ip", req.IP).WithError(err).Error("failed to create block")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create block"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}
