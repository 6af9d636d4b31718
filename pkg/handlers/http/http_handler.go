package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Proxy
	ForwardedHandler     Handler
	SecurityCheckHandler Handler
	HealthHandler        Handler

	// Admin
	GetVersionHandler  Handler
	GetStatusHandler   Handler
	ListEventsHandler  Handler
	ReportEventHandler Handler
	ListBlocksHandler  Handler
	GetBlockHandler    Handler
	CreateBlockHandler Handler
	DeleteBlockHandler Handler
}
