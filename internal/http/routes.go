package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	knowlio "github.com/target/knowlio-web"
	"github.com/target/knowlio-web/internal/live"
	"github.com/target/knowlio-web/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       AuthServiceInterface // Required
	Sessions   ports.SessionReader  // Required
	Contact    ContactService       // Required
	Content    ContentService       // Required
	ClientKeys ClientKeyCodec       // Required

	// Live views; /live is not served when Hub is nil.
	Hub              *live.Hub
	Bus              ports.EventSubscriber
	LiveRecheckDelay time.Duration
	LiveHeartbeat    time.Duration
	LiveObserver     live.ViewObserver // Optional

	// Templates overrides the renderer (tests); nil builds one from disk or the embedded FS.
	Templates    *TemplateRenderer
	CookieDomain string
	CallbackURL  string
	IsDev        bool         // Development mode flag for hot reloading, etc.
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router. Every browser route runs
// behind client key, CSRF and optional-auth middleware; guarded pages also
// require a session.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := services.Templates
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer(TemplateRendererConfig{
			TemplateFS: templateFS(services.IsDev),
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}

	ui := &UIHandlers{
		T:          renderer,
		Auth:       services.Auth,
		ContactSvc: services.Contact,
		ContentSvc: services.Content,
		IsDev:      services.IsDev,
		Logger:     logger,
	}
	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		CallbackURL:  services.CallbackURL,
		Logger:       logger,
	}

	app := http.NewServeMux()
	registerPageRoutes(app, ui)
	registerAuthRoutes(app, authHandlers)
	registerGuardedRoutes(app, ui, RequireAuthBrowser(services.Sessions))
	registerTestAuthRoutes(app, ui)
	if services.Hub != nil && services.Bus != nil {
		app.Handle("GET "+LivePath, live.NewStreamHandler(live.StreamHandlerOptions{
			Hub:          services.Hub,
			Sessions:     services.Sessions,
			Bus:          services.Bus,
			ClientKey:    ClientKeyFromRequest,
			RenderNav:    NavRenderer(renderer),
			RecheckDelay: services.LiveRecheckDelay,
			Heartbeat:    services.LiveHeartbeat,
			Observer:     services.LiveObserver,
			Logger:       logger,
		}))
	}
	// Catch-all; the mux prefers any more specific pattern.
	app.HandleFunc("/", ui.NotFound)

	browser := ClientKeys(ClientKeyConfig{
		Codec:        services.ClientKeys,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})(CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(
		OptionalAuth(services.Sessions)(app),
	))

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", healthHandler)
	root.HandleFunc("HEAD /healthz", healthHandler)
	root.Handle("GET /static/", staticWithFallback(services.IsDev))
	root.Handle("/", browser)
	return root, nil
}

func registerPageRoutes(mux *http.ServeMux, h *UIHandlers) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET "+AboutPath, h.About)
	mux.HandleFunc("GET "+ContactPath, h.Contact)
	mux.HandleFunc("POST "+ContactPath, h.ContactSubmit)
	mux.HandleFunc("GET "+LoginPath, h.Login)
	mux.HandleFunc("POST "+LoginPath, h.LoginSubmit)
	mux.HandleFunc("POST "+LoginPath+"/signup", h.SignUpSubmit)
	mux.HandleFunc("POST "+LoginPath+"/confirm", h.ConfirmSubmit)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/google", h.Google)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerGuardedRoutes(mux *http.ServeMux, h *UIHandlers, guard func(http.Handler) http.Handler) {
	mux.Handle("GET "+DashboardPath, guard(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET "+PublisherDashboardPath, guard(http.HandlerFunc(h.PublisherDashboard)))
	mux.Handle("POST "+PublisherDashboardPath+"/content/{id}/delete", guard(http.HandlerFunc(h.ContentDelete)))
	mux.Handle("GET "+PublisherDashboardPath+"/content/{id}/download", guard(http.HandlerFunc(h.ContentDownload)))
}

func registerTestAuthRoutes(mux *http.ServeMux, h *UIHandlers) {
	mux.HandleFunc("GET "+TestAuthPath, h.TestAuth)
	mux.HandleFunc("POST "+TestAuthPath+"/login", h.TestAuthLogin)
	mux.HandleFunc("POST "+TestAuthPath+"/logout", h.TestAuthLogout)
	mux.HandleFunc("POST "+TestAuthPath+"/event", h.TestAuthEvent)
}

// templateFS reads templates from disk in dev mode and from the embedded FS otherwise.
func templateFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(knowlio.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		slog.Warn("embedded templates unavailable; falling back to disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// staticWithFallback serves /static/* assets.
// In dev mode (isDev=true), serves from disk for hot reloading.
// In production mode (isDev=false), serves from embedded FS.
func staticWithFallback(isDev bool) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), true)
	}
	staticSub, err := fs.Sub(knowlio.StaticFS, "frontend/static")
	if err != nil {
		slog.Warn("embedded static assets unavailable; falling back to disk", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), true)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))), false)
}

// staticWithCacheHeaders adds cache headers: none in dev, an hour otherwise.
func staticWithCacheHeaders(handler http.Handler, isDev bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		handler.ServeHTTP(w, r)
	})
}
