package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/ports"
)

var errNoAccessToken = errors.New("session has no access token")

// SessionStores groups the two persistence slots behind the Session Store.
type SessionStores struct {
	Sessions  ports.SessionStore
	Overrides ports.OverrideStore
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Stores   SessionStores          // Required
	Provider ports.IdentityProvider // Required for FetchAttributes
	Logger   *slog.Logger           // Optional
}

// SessionService is the single source of truth for "who is logged in" per client key.
// The override slot takes precedence over the provider-backed record on read.
type SessionService struct {
	sessions  ports.SessionStore
	overrides ports.OverrideStore
	provider  ports.IdentityProvider
	logger    *slog.Logger
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Stores.Sessions == nil {
		panic("SessionStore is required")
	}
	if opts.Stores.Overrides == nil {
		panic("OverrideStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions:  opts.Stores.Sessions,
		overrides: opts.Stores.Overrides,
		provider:  opts.Provider,
		logger:    logger.With("component", "session_service"),
		now:       time.Now,
	}
}

// Get returns the current session for key. It never fails: backend errors are
// logged and reported as absent.
func (s *SessionService) Get(ctx context.Context, key string) (*domainauth.Session, bool) {
	if key == "" {
		return nil, false
	}

	rec, err := s.overrides.Load(ctx, key)
	switch {
	case err == nil:
		sess := rec.Session(key)
		return &sess, true
	case !errors.Is(err, ports.ErrNotFound):
		s.logger.WarnContext(ctx, "override lookup failed", "error", err)
	}

	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return nil, false
	}
	if sess.Expired(s.now()) {
		if delErr := s.sessions.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "delete expired session failed", "error", delErr)
		}
		return nil, false
	}
	return &sess, true
}

// Set replaces the provider-backed session for key.
func (s *SessionService) Set(ctx context.Context, key string, sess domainauth.Session) error {
	if key == "" {
		return errors.New("client key is required")
	}
	sess.ID = key
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SetOverride writes rec into the override slot for key.
func (s *SessionService) SetOverride(ctx context.Context, key string, rec domainauth.Record) error {
	if key == "" {
		return errors.New("client key is required")
	}
	if err := s.overrides.Store(ctx, key, rec); err != nil {
		return fmt.Errorf("store override: %w", err)
	}
	return nil
}

// Clear removes both slots for key. Subsequent Get calls report absent.
func (s *SessionService) Clear(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	var errs []error
	if err := s.overrides.Delete(ctx, key); err != nil {
		errs = append(errs, fmt.Errorf("delete override: %w", err))
	}
	if err := s.sessions.Delete(ctx, key); err != nil {
		errs = append(errs, fmt.Errorf("delete session: %w", err))
	}
	return errors.Join(errs...)
}

// FetchAttributes loads attributes from the identity provider and merges them
// into the stored session. On failure it returns an AttributeFetch error and
// leaves the stored session untouched.
func (s *SessionService) FetchAttributes(
	ctx context.Context,
	key string,
	sess domainauth.Session,
) (domainauth.Attributes, error) {
	if s.provider == nil {
		return nil, apperrors.AttributeFetch(ports.ErrUnsupported)
	}
	if sess.AccessToken == "" {
		return nil, apperrors.AttributeFetch(errNoAccessToken)
	}

	attrs, err := s.provider.FetchAttributes(ctx, sess.AccessToken)
	if err != nil {
		return nil, apperrors.AttributeFetch(err)
	}

	// Merge into whatever is stored now; a concurrent sign-out wins.
	current, err := s.sessions.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return attrs, nil
		}
		return attrs, apperrors.AttributeFetch(fmt.Errorf("reload session: %w", err))
	}
	if current.Identifier != sess.Identifier {
		return attrs, nil
	}
	current.Attributes = current.Attributes.Merge(attrs)
	if err := s.sessions.Save(ctx, current); err != nil {
		return attrs, apperrors.AttributeFetch(fmt.Errorf("save session: %w", err))
	}
	return attrs, nil
}
