package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rimareum/gatekeeper/pkg/common"
)

const maxTraceIDLength = 128

type traceMiddleware struct{}

func NewTraceMiddleware() Middleware {
	return &traceMiddleware{}
}

// Middleware reuses an inbound X-Trace-Id or mints one, and exposes it to the
// handlers through Locals and the user context.
func (m *traceMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(common.TraceIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDLength {
			traceID = uuid.NewString()
		}
		c.Locals(common.TraceIdKey, traceID)
		c.SetUserContext(context.WithValue(c.UserContext(), common.TraceIdKey, traceID))
		c.Set(common.TraceIDHeader, traceID)
		return c.Next()
	}
}
