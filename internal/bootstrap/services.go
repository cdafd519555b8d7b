package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/knowlio-web/config"
	"github.com/target/knowlio-web/internal/adapters/jwtcookie"
	"github.com/target/knowlio-web/internal/adapters/memory"
	redisadapter "github.com/target/knowlio-web/internal/adapters/redis"
	"github.com/target/knowlio-web/internal/data"
	"github.com/target/knowlio-web/internal/eventbus"
	"github.com/target/knowlio-web/internal/live"
	"github.com/target/knowlio-web/internal/observability/metrics"
	"github.com/target/knowlio-web/internal/observability/statsd"
	"github.com/target/knowlio-web/internal/ports"
	"github.com/target/knowlio-web/internal/service"
)

// ServiceContainer holds the long-lived components shared by the HTTP server
// and background services.
type ServiceContainer struct {
	Bus        *eventbus.Bus
	Sessions   *service.SessionService
	Auth       *service.AuthService
	Hub        *live.Hub
	Listener   *service.AuthListener
	Relay      *redisadapter.EventRelay // nil when Redis is unavailable
	Contact    *service.ContactService
	Content    *service.ContentService
	ClientKeys *jwtcookie.Codec
	Recorder   *metrics.Recorder // nil when metrics are disabled
	Metrics    *statsd.Client

	metricsSub ports.Subscription
}

// Close stops the auth listener, the bus and the metrics client.
func (c *ServiceContainer) Close() {
	if c == nil {
		return
	}
	if c.Listener != nil {
		c.Listener.Stop()
	}
	if c.Bus != nil {
		if c.Recorder != nil {
			c.Bus.Unsubscribe(c.metricsSub)
		}
		c.Bus.Close()
	}
	if err := c.Metrics.Close(); err != nil {
		slog.Default().Debug("close statsd client", "error", err)
	}
}

// ServiceDeps groups the infrastructure the services are built on.
type ServiceDeps struct {
	Config   *config.AppConfig
	DB       *sql.DB
	Redis    redis.UniversalClient // Optional; in-memory stores are used when nil
	Provider ports.IdentityProvider
	Metrics  *statsd.Client // Optional
	Logger   *slog.Logger
}

// NewServices wires the event bus, session store, auth flows, live views and
// the content services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	if deps.Provider == nil {
		return ServiceContainer{}, errors.New("identity provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	codec, err := jwtcookie.NewCodec(cfg.Session.Secret, cfg.Session.ClientTTL)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("client key codec: %w", err)
	}
	if cfg.Session.UsesDevSecret() && !cfg.IsDev {
		logger.Warn("SESSION_SECRET is the development default; set a real secret in production")
	}

	bus := eventbus.New(eventbus.Options{Channel: cfg.Live.RelayChannel, Logger: logger})

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Stores:   sessionStores(cfg, deps.Redis, logger),
		Provider: deps.Provider,
		Logger:   logger,
	})

	hub := live.NewHub(live.HubOptions{Logger: logger})
	listener := service.NewAuthListener(service.AuthListenerOptions{
		Bus:       bus,
		Navigator: hub,
		Logger:    logger,
	})
	listener.Start()

	c := ServiceContainer{
		Bus:      bus,
		Sessions: sessions,
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Provider: deps.Provider,
			Sessions: sessions,
			Events:   bus,
		}),
		Hub:        hub,
		Listener:   listener,
		Contact:    service.NewContactService(service.ContactServiceOptions{Repo: data.NewContactRepo(deps.DB), Logger: logger}),
		Content:    service.NewContentService(service.ContentServiceOptions{Repo: data.NewContentRepo(deps.DB)}),
		ClientKeys: codec,
		Metrics:    deps.Metrics,
	}
	if deps.Metrics != nil {
		c.Recorder = metrics.NewRecorder(deps.Metrics)
		c.metricsSub = bus.Subscribe(c.Recorder.HandleEvent)
	}

	if deps.Redis != nil && cfg.Live.RelayEnabled {
		relay, relayErr := redisadapter.NewEventRelay(redisadapter.EventRelayOptions{
			Client:  deps.Redis,
			Bus:     bus,
			Channel: cfg.Live.RelayChannel,
			Logger:  logger,
		})
		if relayErr != nil {
			c.Close()
			return ServiceContainer{}, fmt.Errorf("event relay: %w", relayErr)
		}
		c.Relay = relay
	}

	return c, nil
}

func sessionStores(cfg *config.AppConfig, client redis.UniversalClient, logger *slog.Logger) service.SessionStores {
	if client == nil {
		if cfg.Redis.Enabled {
			logger.Warn("redis client not configured; sessions are kept in memory")
		}
		return service.SessionStores{
			Sessions:  memory.NewSessionStore(),
			Overrides: memory.NewOverrideStore(cfg.Session.OverrideTTL),
		}
	}
	return service.SessionStores{
		Sessions:  redisadapter.NewSessionStore(client),
		Overrides: redisadapter.NewOverrideStore(client, cfg.Session.OverrideTTL),
	}
}

// ServiceOrchestrationConfig contains everything RunServicesWithShutdown starts.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// backgroundService describes a component that runs until ctx is canceled.
type backgroundService struct {
	mode config.ServiceMode
	name string
	run  func(context.Context) error
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) ([]backgroundService, error) {
	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return nil, fmt.Errorf("determine enabled services: %w", err)
	}

	var out []backgroundService
	if enabled[config.ServiceModeHTTP] {
		handler, handlerErr := BuildHTTPHandler(HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		if handlerErr != nil {
			return nil, handlerErr
		}
		server := newServer(cfg.Config.HTTP.Addr, handler)
		out = append(out, backgroundService{
			mode: config.ServiceModeHTTP,
			name: "http server",
			run: func(ctx context.Context) error {
				return ServeHTTP(ctx, server, logger)
			},
		})
	}

	if cfg.Config.IsRelayEnabled() {
		relay := cfg.Services.Relay
		if relay == nil {
			logger.Warn("event relay enabled but redis is unavailable; events stay local")
		} else {
			out = append(out, backgroundService{
				mode: config.ServiceModeRelay,
				name: "event relay",
				run:  relay.Run,
			})
		}
	}
	return out, nil
}

// RunServicesWithShutdown starts all enabled services and blocks until ctx is
// canceled, SIGINT/SIGTERM arrives, or a service fails. The container is
// closed before returning.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defer cfg.Services.Close()

	services, err := buildBackgroundServices(cfg, logger)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	for _, svc := range services {
		logger.InfoContext(ctx, "background service started", "service", svc.name, "mode", svc.mode)
		g.Go(func() error {
			if runErr := svc.run(gctx); runErr != nil {
				return fmt.Errorf("%s failed: %w", svc.name, runErr)
			}
			logger.Info(svc.name + " stopped")
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err = <-done:
		return logServiceError(logger, err)
	case <-gctx.Done():
	}
	if sigCtx.Err() != nil {
		logger.Info("shutting down services...")
	}

	select {
	case err = <-done:
		return logServiceError(logger, err)
	case <-time.After(shutdownWaitTimeout):
		return errors.New("timeout waiting for services to stop")
	}
}

func logServiceError(logger *slog.Logger, err error) error {
	if err != nil {
		logger.Error("service error", "error", err)
	}
	return err
}
