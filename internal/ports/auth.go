package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

// ErrUnsupported is returned by identity providers for flows they do not offer
// (e.g. password sign-in against a redirect-only OIDC issuer).
var ErrUnsupported = errors.New("operation not supported by identity provider")

// ErrNotFound is returned by session and override stores when the key holds no record.
var ErrNotFound = errors.New("session not found")

// BeginInput carries inputs for initiating a redirect sign-in.
type BeginInput struct {
	RedirectURL string
	// IdentityProvider selects a federated provider on the hosted UI (e.g. "Google"); empty uses the default.
	IdentityProvider string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// RedirectProvider initiates and completes a redirect (OAuth/OIDC) sign-in.
type RedirectProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SignUpInput carries the fields of a new account.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// IdentityProvider is the full boundary to the managed identity service.
// Every call may fail with a provider error.
type IdentityProvider interface {
	RedirectProvider

	// SignIn authenticates with username (email) and password.
	SignIn(ctx context.Context, username, password string) (domainauth.Identity, error)

	// SignUp registers an account that must be confirmed before sign-in.
	SignUp(ctx context.Context, in SignUpInput) error

	// ConfirmSignUp confirms a registration with the emailed code.
	ConfirmSignUp(ctx context.Context, username, code string) error

	// SignOut revokes provider tokens.
	SignOut(ctx context.Context, accessToken string) error

	// FetchAttributes loads the current user's attributes.
	FetchAttributes(ctx context.Context, accessToken string) (domainauth.Attributes, error)
}

// SessionStore persists provider-backed sessions keyed by client key.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// OverrideStore persists the short-lived override slot keyed by client key.
// It takes precedence over SessionStore on read.
type OverrideStore interface {
	Load(ctx context.Context, key string) (domainauth.Record, error)
	Store(ctx context.Context, key string, rec domainauth.Record) error
	Delete(ctx context.Context, key string) error
}

// SessionReader is the read side of the session store used by views and guards.
type SessionReader interface {
	Get(ctx context.Context, key string) (*domainauth.Session, bool)
}
