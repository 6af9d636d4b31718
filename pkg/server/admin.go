package server

import (
	"github.com/rimareum/gatekeeper/pkg/config"
	"github.com/rimareum/gatekeeper/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	AdminServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	AdminServer struct {
		*BaseServer
	}
)

func NewAdminServer(di AdminServerDI) (*AdminServer, error) {
	base, err := NewBaseServer(di.Config, di.Logger).WithRouters(di.Routers...)
	if err != nil {
		return nil, err
	}
	return &AdminServer{BaseServer: base}, nil
}

func (s *AdminServer) Run() error {
	return s.listen("admin", s.Config.Server.AdminPort)
}
