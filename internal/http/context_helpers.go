package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// clientKeyKey carries the browser's client key.
type clientKeyKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session from context and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// SetClientKeyInContext stores the client key.
func SetClientKeyInContext(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyKey{}, key)
}

// ClientKeyFromContext returns the client key, or "" when ClientKeys did not run.
func ClientKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(clientKeyKey{}).(string)
	return key
}

// ClientKeyFromRequest is ClientKeyFromContext for a request.
func ClientKeyFromRequest(r *http.Request) string {
	return ClientKeyFromContext(r.Context())
}
