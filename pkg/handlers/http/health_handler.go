package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type healthHandler struct {
	now func() time.Time
}

func NewHealthHandler() Handler {
	return &healthHandler{now: time.Now}
}

func (h *healthHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}
