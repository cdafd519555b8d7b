package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieMaxAge   = 600
	googleIdentityLabel = "Google"
)

// AuthHandlers provides HTTP handlers for redirect sign-in, sign-out and status.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// CallbackURL is the absolute redirect URL registered with the provider.
	CallbackURL string
	Logger      *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts a redirect sign-in through the provider's hosted UI.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.begin(w, r, "")
}

// Google starts a redirect sign-in federated to Google.
// GET /auth/google?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Google(w http.ResponseWriter, r *http.Request) {
	h.begin(w, r, googleIdentityLabel)
}

func (h *AuthHandlers) begin(w http.ResponseWriter, r *http.Request, identityProvider string) {
	redirectURI := ""
	if raw := r.URL.Query().Get("redirect_uri"); raw != "" {
		redirectURI = safeRedirectPath(raw)
	}

	result, err := h.Svc.BeginLogin(r.Context(), service.BeginLoginInput{
		Key:              ClientKeyFromRequest(r),
		RedirectURL:      h.callbackURL(r),
		IdentityProvider: identityProvider,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		http.Redirect(w, r, LoginPath+"?error=redirect_failed", http.StatusSeeOther)
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// callbackURL returns the configured callback or derives one from the request.
func (h *AuthHandlers) callbackURL(r *http.Request) string {
	if h.CallbackURL != "" {
		return h.CallbackURL
	}
	scheme := "http"
	if r.TLS != nil || isForwardedHTTPS(r) {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host, Path: "/auth/callback"}).String()
}

// Callback completes a redirect sign-in.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expectedState := ""
	if c, err := r.Cookie(oauthStateCookie); err == nil {
		expectedState = c.Value
	}
	nonce := ""
	if c, err := r.Cookie(oauthNonceCookie); err == nil {
		nonce = c.Value
	}
	customState := ""
	if c, err := r.Cookie(postLoginCookie); err == nil {
		customState = safeRedirectPath(c.Value)
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Key:           ClientKeyFromRequest(r),
		Code:          q.Get("code"),
		State:         q.Get("state"),
		Nonce:         nonce,
		ExpectedState: expectedState,
		CustomState:   customState,
	})
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)
	h.clearCookie(w, r, postLoginCookie)

	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed",
			"error", err,
			"provider_error", q.Get("error"),
		)
		http.Redirect(w, r, LoginPath+"?error=signin_failed", http.StatusSeeOther)
		return
	}

	target := DashboardPath
	if customState != "" && customState != "/" {
		target = customState
	}
	h.logger().InfoContext(r.Context(), "redirect sign in completed",
		"provider", string(result.Session.Provider))
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout signs out and returns to the landing page. Provider errors never
// block the local sign-out.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.SignOut(r.Context(), ClientKeyFromRequest(r)); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": HomePath,
		})
		return
	}
	redirectAfterPost(w, r, HomePath)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session, ok := h.Svc.Session(r.Context(), ClientKeyFromRequest(r))
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	body := map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"identifier":   session.Identifier,
			"display_name": domainauth.SessionDisplayName(session),
			"attributes":   session.Attributes,
			"provider":     session.Provider,
		},
	}
	if !session.ExpiresAt.IsZero() {
		body["expires_at"] = session.ExpiresAt
	}
	WriteJSON(w, http.StatusOK, body)
}

// clearCookie expires a cookie, mirroring the attributes used to set it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   r.TLS != nil || isForwardedHTTPS(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	secure := r.TLS != nil || isForwardedHTTPS(r)
	for name, value := range map[string]string{
		oauthStateCookie: p.State,
		oauthNonceCookie: p.Nonce,
		postLoginCookie:  p.RedirectURI,
	} {
		if value == "" {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieMaxAge,
		})
	}
}
