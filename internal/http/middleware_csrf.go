package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName is the default name for the CSRF cookie and form field.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the default name for the CSRF header (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the default length of the CSRF token in bytes.
	DefaultCSRFTokenLength = 32
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	TokenLength   int
}

// CSRFProtection returns a middleware implementing the double-submit cookie
// pattern. State-changing requests must echo the cookie token in the
// X-Csrf-Token header or the csrf_token form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultCSRFCookieName
	}
	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultCSRFTokenLength
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				var err error
				token, err = generateCSRFToken(cfg.TokenLength)
				if err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: false, // readable by page scripts
					Secure:   r.TLS != nil || isForwardedHTTPS(r),
					SameSite: http.SameSiteStrictMode,
					MaxAge:   3600 * 12,
				})
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))
			if requiresCSRFValidation(r.Method) && !validateCSRFToken(r, token, cfg) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// generateCSRFToken fails closed when the random source is unavailable.
func generateCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// isForwardedHTTPS checks X-Forwarded-Proto, which may be a comma-separated list.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func validateCSRFToken(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}
	if headerToken := r.Header.Get(cfg.HeaderName); headerToken != "" {
		return subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) == 1
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return false
		}
		if formToken := r.PostFormValue(cfg.FormFieldName); formToken != "" {
			return subtle.ConstantTimeCompare([]byte(formToken), []byte(cookieToken)) == 1
		}
	}
	return false
}

type csrfTokenKey struct{}

// GetCSRFToken returns the CSRF token for templates and fragments rendered on behalf of r.
func GetCSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfTokenKey{}).(string); ok {
		return token
	}
	return ""
}
