package router

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	handlers "github.com/rimareum/gatekeeper/pkg/handlers/http"
	"github.com/rimareum/gatekeeper/pkg/middleware"
)

const (
	HealthPath        = "/health"
	PingPath          = "/__/ping"
	SecurityCheckPath = "/__/security/check"
)

type proxyRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewProxyRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &proxyRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *proxyRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h == nil || r.middlewareTransport == nil ||
		h.ForwardedHandler == nil || h.SecurityCheckHandler == nil {
		return ErrInvalidHandlerTransport
	}
	m := r.middlewareTransport

	if h.HealthHandler != nil {
		router.Get(HealthPath, h.HealthHandler.Handle)
	}

	router.Get(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	router.Post(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	mws := global(m)
	if m.GatekeeperMiddleware != nil {
		mws = append(mws, m.GatekeeperMiddleware.Middleware())
	}
	if len(mws) > 0 {
		router.Use(mws...)
	}

	router.Get(SecurityCheckPath, h.SecurityCheckHandler.Handle)

	if m.ForwardGuardMiddleware != nil {
		router.Use(m.ForwardGuardMiddleware.Middleware(), h.ForwardedHandler.Handle)
		return nil
	}
	router.Use(h.ForwardedHandler.Handle)

	return nil
}
