package server

import (
	"github.com/rimareum/gatekeeper/pkg/config"
	"github.com/rimareum/gatekeeper/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	ProxyServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	ProxyServer struct {
		*BaseServer
	}
)

func NewProxyServer(di ProxyServerDI) (*ProxyServer, error) {
	base, err := NewBaseServer(di.Config, di.Logger).WithRouters(di.Routers...)
	if err != nil {
		return nil, err
	}
	return &ProxyServer{BaseServer: base}, nil
}

func (s *ProxyServer) Run() error {
	return s.listen("proxy", s.Config.Server.ProxyPort)
}
