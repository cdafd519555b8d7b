package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/target/knowlio-web/config"
	httpx "github.com/target/knowlio-web/internal/http"
	"github.com/target/knowlio-web/internal/live"
)

// HTTPServerConfig contains dependencies for the HTTP handler.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler builds the router and wraps it in the server middleware.
func BuildHTTPHandler(cfg HTTPServerConfig) (http.Handler, error) {
	if cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server config requires app config and services")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	svc := cfg.Services

	router, err := httpx.NewRouter(httpx.RouterServices{
		Auth:             svc.Auth,
		Sessions:         svc.Sessions,
		Contact:          svc.Contact,
		Content:          svc.Content,
		ClientKeys:       svc.ClientKeys,
		Hub:              svc.Hub,
		Bus:              svc.Bus,
		LiveRecheckDelay: appCfg.Live.RecheckDelay,
		LiveHeartbeat:    appCfg.Live.Heartbeat,
		LiveObserver:     liveObserver(svc),
		CookieDomain:     appCfg.HTTP.CookieDomain,
		CallbackURL:      callbackURL(appCfg),
		IsDev:            appCfg.IsDev,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	return buildHTTPHandler(httpHandlerConfig{
		Logger: logger,
		Router: router,
		HTTP:   appCfg.HTTP,
	}), nil
}

// liveObserver avoids handing the router a typed nil.
func liveObserver(svc *ServiceContainer) live.ViewObserver {
	if svc.Recorder == nil {
		return nil
	}
	return svc.Recorder
}

// callbackURL is the redirect target registered with the identity provider.
func callbackURL(cfg *config.AppConfig) string {
	switch cfg.Auth.Mode {
	case config.AuthModeOAuth:
		if cfg.Auth.OAuth.RedirectURL != "" {
			return cfg.Auth.OAuth.RedirectURL
		}
	case config.AuthModeCognito:
		if cfg.Auth.Cognito.RedirectURL != "" {
			return cfg.Auth.Cognito.RedirectURL
		}
	}
	return strings.TrimSuffix(cfg.HTTP.BaseURL, "/") + "/auth/callback"
}

type httpHandlerConfig struct {
	Logger *slog.Logger
	Router http.Handler
	HTTP   config.HTTPConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	// Order: Recover -> Logging -> Compression -> Router
	h := cfg.Router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel, Logger: cfg.Logger})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

func newServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: /live streams stay open; the stream handler writes heartbeats.
	}
}

// ServeHTTP runs server until ctx is canceled, then shuts it down gracefully.
// Request contexts are canceled at shutdown so open /live streams return.
func ServeHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	streamsCtx, cancelStreams := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelStreams()
	server.BaseContext = func(net.Listener) context.Context { return streamsCtx }
	server.RegisterOnShutdown(cancelStreams)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return ShutdownHTTPServer(ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Logger:  logger,
	})
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
