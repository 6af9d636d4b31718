package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

type Transport struct {
	PanicRecoverMiddleware Middleware
	TraceMiddleware        Middleware
	MetricsMiddleware      Middleware
	GatekeeperMiddleware   Middleware
	ForwardGuardMiddleware Middleware
	AdminAuthMiddleware    Middleware
}
