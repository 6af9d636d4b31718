package router

import (
	"github.com/gofiber/fiber/v2"
	handlers "github.com/rimareum/gatekeeper/pkg/handlers/http"
	"github.com/rimareum/gatekeeper/pkg/middleware"
)

const (
	SecurityPath = "/api/v1/security"
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h == nil || r.middlewareTransport == nil ||
		h.GetStatusHandler == nil || h.ListEventsHandler == nil || h.ReportEventHandler == nil ||
		h.ListBlocksHandler == nil || h.GetBlockHandler == nil ||
		h.CreateBlockHandler == nil || h.DeleteBlockHandler == nil {
		return ErrInvalidHandlerTransport
	}
	m := r.middlewareTransport

	if mws := global(m); len(mws) > 0 {
		router.Use(mws...)
	}

	if h.HealthHandler != nil {
		router.Get(HealthPath, h.HealthHandler.Handle)
	}
	if h.GetVersionHandler != nil {
		router.Get("/version", h.GetVersionHandler.Handle)
	}

	security := router.Group(SecurityPath)
	{
		if m.AdminAuthMiddleware != nil {
			security.Use(m.AdminAuthMiddleware.Middleware())
		}

		security.Get("/status", h.GetStatusHandler.Handle)

		events := security.Group("/events")
		{
			events.Get("", h.ListEventsHandler.Handle)
			events.Post("", h.ReportEventHandler.Handle)
		}

		blocks := security.Group("/blocks")
		{
			blocks.Get("", h.ListBlocksHandler.Handle)
			blocks.Post("", h.CreateBlockHandler.Handle)
			blocks.Get("/:ip", h.GetBlockHandler.Handle)
			blocks.Delete("/:ip", h.DeleteBlockHandler.Handle)
		}
	}
	return nil
}

// global returns the middlewares mounted in front of every route.
func global(m *middleware.Transport) []interface{} {
	var out []interface{}
	for _, mw := range []middleware.Middleware{m.PanicRecoverMiddleware, m.TraceMiddleware, m.MetricsMiddleware} {
		if mw != nil {
			out = append(out, mw.Middleware())
		}
	}
	return out
}
