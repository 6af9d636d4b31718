package dependency_container

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/config"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	handlers "github.com/rimareum/gatekeeper/pkg/handlers/http"
	"github.com/rimareum/gatekeeper/pkg/infra/auditlogs"
	"github.com/rimareum/gatekeeper/pkg/infra/behavior"
	"github.com/rimareum/gatekeeper/pkg/infra/blocklist"
	"github.com/rimareum/gatekeeper/pkg/infra/cache"
	"github.com/rimareum/gatekeeper/pkg/infra/database"
	"github.com/rimareum/gatekeeper/pkg/infra/fingerprint"
	"github.com/rimareum/gatekeeper/pkg/infra/geo"
	"github.com/rimareum/gatekeeper/pkg/infra/httpx"
	"github.com/rimareum/gatekeeper/pkg/infra/jwt"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/rimareum/gatekeeper/pkg/infra/ratelimit"
	"github.com/rimareum/gatekeeper/pkg/infra/repository"
	"github.com/rimareum/gatekeeper/pkg/infra/rules"
	"github.com/rimareum/gatekeeper/pkg/middleware"
	"github.com/sirupsen/logrus"

	// registers the security_events migrations
	_ "github.com/rimareum/gatekeeper/pkg/infra/migrations"
)

const geoBreakerName = "geo-resolver"

type Container struct {
	Logger              *logrus.Logger
	Gatekeeper          *gatekeeper.Gatekeeper
	Blocker             gatekeeper.Blocker
	AuditService        *auditlogs.Service
	AuditReader         auditlogs.Reader
	JWTManager          jwt.Manager
	MiddlewareTransport *middleware.Transport
	HandlerTransport    *handlers.HandlerTransport

	closers []func() error
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
}

// NewContainer wires the gatekeeper from configuration. On error every
// resource opened so far is released.
func NewContainer(di ContainerDI) (_ *Container, err error) {
	cfg := di.Cfg
	c := &Container{Logger: di.Logger}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	prometheus.Initialize(prometheus.MetricsConfig{Enabled: cfg.Metrics.Enabled})

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, di.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.onClose(redisClient.Close)
	}

	// block store and rate counter
	var (
		store   security.BlockStore
		counter ratelimit.Counter
	)
	sweep := cfg.Gatekeeper.Behavior.SweepInterval
	switch cfg.Gatekeeper.Store {
	case config.StoreRedis:
		store = blocklist.NewRedisStore(redisClient, time.Now)
		counter = ratelimit.NewRedisCounter(redisClient, nil)
	default:
		memStore := blocklist.NewMemoryStore(di.Logger, sweep)
		c.onClose(func() error { memStore.Close(); return nil })
		memCounter := ratelimit.NewMemoryCounter(sweep)
		c.onClose(func() error { memCounter.Close(); return nil })
		store, counter = memStore, memCounter
	}
	blocker := gatekeeper.NewBlocker(di.Logger, store, cfg.Gatekeeper.BlockDuration, time.Now)

	tracker := behavior.NewWindowTracker(di.Logger, behavior.Config{
		Window:               cfg.Gatekeeper.Behavior.Window,
		BurstWindow:          cfg.Gatekeeper.Behavior.BurstWindow,
		BurstThreshold:       cfg.Gatekeeper.Behavior.BurstThreshold,
		UniquePathsThreshold: cfg.Gatekeeper.Behavior.UniquePathsThreshold,
		SweepInterval:        sweep,
	})
	c.onClose(func() error { tracker.Close(); return nil })

	scorer, err := rules.NewScorer(rules.Config{
		CustomPatterns:   cfg.Gatekeeper.SuspiciousPatterns,
		HoneypotPaths:    cfg.Gatekeeper.HoneypotPaths,
		BotUserAgents:    cfg.Gatekeeper.BotUserAgents,
		MaxInspectLength: cfg.Gatekeeper.MaxInspectLength,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build rule catalog: %w", err)
	}

	// geo policy; a nil filter disables the stage
	var geoFilter geo.PolicyFilter
	if cfg.Geo.Enabled {
		client := httpx.NewFastHTTPClient(
			httpx.WithTimeout(cfg.Geo.Timeout),
			httpx.WithUserAgent("rimareum-gatekeeper"),
		)
		resolver := geo.NewBreakerResolver(
			geo.NewHTTPResolver(client, cfg.Geo.URLTemplate, cfg.Geo.Timeout),
			httpx.NewCircuitBreaker(geoBreakerName, cfg.Geo.Breaker.OpenTimeout, cfg.Geo.Breaker.MaxFailures),
		)
		geoFilter = geo.NewFilter(
			di.Logger,
			resolver,
			cfg.Gatekeeper.AllowedCountries,
			geo.WithCache(cache.NewTTLMap[string](cfg.Geo.CacheTTL)),
			geo.WithTimeout(cfg.Geo.Timeout),
		)
	}

	// audit
	var eventRepository security.EventRepository
	if cfg.Database.Enabled {
		db, dbErr := database.NewDB(di.Logger, &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if dbErr != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", dbErr)
		}
		c.onClose(db.Close)
		eventRepository = repository.NewSecurityEventRepository(db.DB)
	}
	sinks, reader, err := auditlogs.BuildSinks(cfg.Audit.Sinks, auditlogs.SinkDeps{
		Logger:       di.Logger,
		Repository:   eventRepository,
		MemoryEvents: cfg.Audit.MemoryEvents,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build audit sinks: %w", err)
	}
	auditService := auditlogs.NewService(di.Logger, sinks, auditlogs.Options{
		QueueSize: cfg.Audit.QueueSize,
		Workers:   cfg.Audit.Workers,
	})
	c.onClose(auditService.Close)

	gk := gatekeeper.New(
		di.Logger,
		scorer,
		tracker,
		counter,
		geoFilter,
		blocker,
		auditService,
		gatekeeper.Options{
			Maintenance:    cfg.Gatekeeper.MaintenanceMode,
			BlockThreshold: cfg.Gatekeeper.BlockThreshold,
			BlockDuration:  cfg.Gatekeeper.BlockDuration,
			Limits: ratelimit.Limits{
				PerMinute: cfg.Gatekeeper.RateLimits.PerMinute,
				PerHour:   cfg.Gatekeeper.RateLimits.PerHour,
			},
		},
	)

	jwtManager := jwt.NewJwtManager(&cfg.Server)
	extractor := fingerprint.NewExtractor(fingerprint.WithMaxFieldLength(cfg.Gatekeeper.MaxInspectLength))

	forwardedHandler, err := handlers.NewForwardedHandler(handlers.ForwardedHandlerDeps{
		Logger:      di.Logger,
		UpstreamURL: cfg.Server.UpstreamURL,
	})
	if err != nil {
		return nil, err
	}

	c.Gatekeeper = gk
	c.Blocker = blocker
	c.AuditService = auditService
	c.AuditReader = reader
	c.JWTManager = jwtManager
	c.MiddlewareTransport = &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(di.Logger),
		TraceMiddleware:        middleware.NewTraceMiddleware(),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(),
		GatekeeperMiddleware: middleware.NewGatekeeperMiddleware(
			di.Logger,
			extractor,
			gk,
			cfg.Gatekeeper.BypassPaths,
			cfg.Server.SupportMail,
		),
		// evaluates whatever the bypass list let through before it is forwarded
		ForwardGuardMiddleware: middleware.NewGatekeeperMiddleware(
			di.Logger,
			extractor,
			gk,
			nil,
			cfg.Server.SupportMail,
		),
		AdminAuthMiddleware: middleware.NewAdminAuthMiddleware(di.Logger, jwtManager),
	}
	c.HandlerTransport = &handlers.HandlerTransport{
		// Proxy
		ForwardedHandler:     forwardedHandler,
		SecurityCheckHandler: handlers.NewSecurityCheckHandler(di.Logger, extractor, gk),
		HealthHandler:        handlers.NewHealthHandler(),

		// Admin
		GetVersionHandler:  handlers.NewGetVersionHandler(di.Logger),
		GetStatusHandler:   handlers.NewGetStatusHandler(di.Logger, gk, blocker, reader),
		ListEventsHandler:  handlers.NewListEventsHandler(di.Logger, reader),
		ReportEventHandler: handlers.NewReportEventHandler(di.Logger, auditService),
		ListBlocksHandler:  handlers.NewListBlocksHandler(di.Logger, blocker),
		GetBlockHandler:    handlers.NewGetBlockHandler(di.Logger, blocker),
		CreateBlockHandler: handlers.NewCreateBlockHandler(di.Logger, blocker),
		DeleteBlockHandler: handlers.NewDeleteBlockHandler(di.Logger, blocker),
	}

	di.Logger.WithFields(logrus.Fields{
		"store":       cfg.Gatekeeper.Store,
		"geo":         cfg.Geo.Enabled,
		"database":    cfg.Database.Enabled,
		"audit_sinks": len(sinks),
		"maintenance": cfg.Gatekeeper.MaintenanceMode,
	}).Info("gatekeeper initialized")
	return c, nil
}

func (c *Container) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse order of acquisition, so the audit
// queue drains before the connections its sinks use are closed.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
