package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rimareum/gatekeeper/pkg/config"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const MetricsPath = "/metrics"

// MetricsServer exposes the private prometheus registry on its own port.
type MetricsServer struct {
	*BaseServer
}

func NewMetricsServer(cfg *config.Config, logger *logrus.Logger) *MetricsServer {
	base := NewBaseServer(cfg, logger)
	base.Router.Use(recover.New())

	handler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(prometheus.Registry(), promhttp.HandlerOpts{}),
	)
	base.Router.Get(MetricsPath, func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	})
	return &MetricsServer{BaseServer: base}
}

func (s *MetricsServer) Run() error {
	return s.listen("metrics", s.Config.Server.MetricsPort)
}
