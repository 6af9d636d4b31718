package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rimareum/gatekeeper/pkg/config"
	"github.com/rimareum/gatekeeper/pkg/dependency_container"
	infraLogger "github.com/rimareum/gatekeeper/pkg/infra/logger"
	"github.com/rimareum/gatekeeper/pkg/server"
	"github.com/rimareum/gatekeeper/pkg/server/router"
	"github.com/rimareum/gatekeeper/pkg/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	serverTypeProxy = "proxy"
	serverTypeAdmin = "admin"
	serverTypeAll   = "all"
)

func main() {
	serverType := getServerType()
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger(serverType)

	if err := config.Load("../../config"); err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	if cfg.Gatekeeper.Store == config.StoreMemory && serverType != serverTypeAll {
		logger.WithField("server_type", serverType).
			Warn("memory store is not shared between processes; admin block changes will not reach the proxy")
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("failed to initialize dependencies: %v", err)
	}

	servers, err := buildServers(serverType, cfg, logger, container)
	if err != nil {
		_ = container.Close()
		logger.Fatalf("failed to initialize servers: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"server_type": serverType,
		"servers":     len(servers),
	}).Infof("starting %s", version.GetInfo())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(srv.Run)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers...")
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	runErr := g.Wait()
	if err := container.Close(); err != nil {
		logger.WithError(err).Error("failed to release resources")
	}
	if runErr != nil {
		logger.WithError(runErr).Error("server stopped with error")
		os.Exit(1)
	}
	logger.Info("server gracefully stopped")
}

func getServerType() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return serverTypeAll
}

func buildServers(
	serverType string,
	cfg *config.Config,
	logger *logrus.Logger,
	container *dependency_container.Container,
) ([]server.Server, error) {
	var servers []server.Server

	if serverType == serverTypeProxy || serverType == serverTypeAll {
		proxy, err := server.NewProxyServer(server.ProxyServerDI{
			Config: cfg,
			Logger: logger,
			Routers: []router.ServerRouter{
				router.NewProxyRouter(container.MiddlewareTransport, container.HandlerTransport),
			},
		})
		if err != nil {
			return nil, err
		}
		servers = append(servers, proxy)
		if cfg.Metrics.Enabled {
			servers = append(servers, server.NewMetricsServer(cfg, logger))
		}
	}

	if serverType == serverTypeAdmin || serverType == serverTypeAll {
		admin, err := server.NewAdminServer(server.AdminServerDI{
			Config: cfg,
			Logger: logger,
			Routers: []router.ServerRouter{
				router.NewAdminRouter(container.MiddlewareTransport, container.HandlerTransport),
			},
		})
		if err != nil {
			return nil, err
		}
		servers = append(servers, admin)
	}

	if len(servers) == 0 {
		return nil, errors.New("unknown server type " + serverType + ", expected proxy, admin or all")
	}
	return servers, nil
}
