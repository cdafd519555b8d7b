package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so streamed responses are not held back.
func (w *respWriter) Flush() {
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultClientKeyCookieName names the cookie carrying the signed client key.
const DefaultClientKeyCookieName = "sid"

// ClientKeyCodec signs and verifies client key tokens.
type ClientKeyCodec interface {
	Issue(key string) (string, error)
	Parse(token string) (string, error)
	TTL() time.Duration
}

// ClientKeyConfig configures the ClientKeys middleware.
type ClientKeyConfig struct {
	Codec        ClientKeyCodec // Required
	CookieName   string
	CookieDomain string
	// NewKey generates fresh client keys (default: random UUID).
	NewKey func() string
	Logger *slog.Logger
}

// ClientKeys returns a middleware that gives every browser a stable client
// key. The key is read from a signed cookie, or minted and set when the cookie
// is missing or invalid, and stored in the request context.
func ClientKeys(cfg ClientKeyConfig) func(http.Handler) http.Handler {
	if cfg.Codec == nil {
		panic("httpx: ClientKeyConfig.Codec is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultClientKeyCookieName
	}
	if cfg.NewKey == nil {
		cfg.NewKey = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(cfg.CookieName); err == nil && c.Value != "" {
				if key, perr := cfg.Codec.Parse(c.Value); perr == nil {
					next.ServeHTTP(w, r.WithContext(SetClientKeyInContext(r.Context(), key)))
					return
				}
			}

			key := cfg.NewKey()
			token, err := cfg.Codec.Issue(key)
			if err != nil {
				cfg.Logger.ErrorContext(r.Context(), "issue client key failed", "error", err)
				http.Error(w, "unable to establish client session", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    token,
				Path:     "/",
				Domain:   cfg.CookieDomain,
				HttpOnly: true,
				Secure:   r.TLS != nil || isForwardedHTTPS(r),
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(cfg.Codec.TTL().Seconds()),
			})
			next.ServeHTTP(w, r.WithContext(SetClientKeyInContext(r.Context(), key)))
		})
	}
}

// OptionalAuth returns a middleware that adds the current session, when
// present, to the request context. Unauthenticated requests continue unchanged.
func OptionalAuth(sessions ports.SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := getSessionFromRequest(r, sessions); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthBrowser returns a middleware that requires a session.
// Browser requests without one are redirected to the login page; other
// requests receive a 401 JSON response.
func RequireAuthBrowser(sessions ports.SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSessionFromRequest(r, sessions)
			if session == nil {
				if IsBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// getSessionFromRequest reads the session for the request's client key.
// The store is consulted on every request; nothing is cached across renders.
func getSessionFromRequest(r *http.Request, sessions ports.SessionReader) *domainauth.Session {
	if sessions == nil {
		return nil
	}
	key := ClientKeyFromContext(r.Context())
	if key == "" {
		return nil
	}
	session, ok := sessions.Get(r.Context(), key)
	if !ok {
		return nil
	}
	return session
}

// IsBrowserRequest reports whether the request expects an HTML response.
// API and static paths are never browser requests; htmx requests always are.
func IsBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// redirectToLogin sends the browser to the login page with the current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	loginURL := loginURLFor(redirectPathForRequest(r))
	if IsHTMX(r) {
		SetHXRedirect(w, loginURL)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

func loginURLFor(redirectPath string) string {
	if redirectPath == "" || redirectPath == "/" {
		return LoginPath
	}
	return LoginPath + "?redirect_uri=" + url.QueryEscape(redirectPath)
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
