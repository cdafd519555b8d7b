package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	apperrors "github.com/target/knowlio-web/internal/errors"
	obserrors "github.com/target/knowlio-web/internal/observability/errors"
	"github.com/target/knowlio-web/internal/ports"
)

// DefaultSimulatedEmail is used by the test-auth page when no email is entered.
const DefaultSimulatedEmail = "user@example.com"

var confirmationCodePattern = regexp.MustCompile(`^\d{6}$`)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider // Required
	Sessions *SessionService        // Required
	Events   ports.EventPublisher   // Required
}

// AuthService orchestrates authentication flows: it calls the identity
// provider, updates the Session Store, and then publishes the matching
// lifecycle event. Every state change happens before its event is published.
type AuthService struct {
	provider ports.IdentityProvider
	sessions *SessionService
	events   ports.EventPublisher
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Provider == nil {
		panic("IdentityProvider is required")
	}
	if opts.Sessions == nil {
		panic("SessionService is required")
	}
	if opts.Events == nil {
		panic("EventPublisher is required")
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		events:   opts.Events,
		logger:   slog.Default().With("component", "auth_service"),
	}
}

// Session returns the current session for key.
func (s *AuthService) Session(ctx context.Context, key string) (*domainauth.Session, bool) {
	return s.sessions.Get(ctx, key)
}

// BeginLoginInput groups parameters for starting a redirect sign-in.
type BeginLoginInput struct {
	Key              string
	RedirectURL      string
	IdentityProvider string
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates a redirect sign-in and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, in BeginLoginInput) (*BeginLoginResult, error) {
	if in.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{
		RedirectURL:      in.RedirectURL,
		IdentityProvider: in.IdentityProvider,
	})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	payload := map[string]string{}
	if in.IdentityProvider != "" {
		payload["provider"] = in.IdentityProvider
	}
	s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignInInitiated, in.Key, payload))

	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Key   string
	Code  string
	State string
	Nonce string
	// ExpectedState is the state issued by BeginLogin, read back from the browser.
	ExpectedState string
	// CustomState is application state carried across the redirect (the post-login path).
	CustomState string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the authorization code, stores the session and
// publishes sign-in-succeeded. Any failure publishes sign-in-failed.
func (s *AuthService) CompleteLogin(ctx context.Context, in CompleteLoginInput) (*CompleteLoginResult, error) {
	res, err := s.completeLogin(ctx, in)
	if err != nil {
		s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignInFailed, in.Key, map[string]string{
			"error":       apperrors.UserMessage(err, apperrors.MsgAuthenticationFailed),
			"error_class": obserrors.Classify(err),
		}))
		return nil, err
	}

	s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignInSucceeded, in.Key, map[string]string{
		"provider": string(res.Session.Provider),
	}))
	if in.CustomState != "" {
		s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagCustomState, in.Key, map[string]string{
			"state": in.CustomState,
		}))
	}
	return res, nil
}

func (s *AuthService) completeLogin(ctx context.Context, in CompleteLoginInput) (*CompleteLoginResult, error) {
	if in.Key == "" {
		return nil, errors.New("client key is required")
	}
	if in.Code == "" {
		return nil, apperrors.ValidationField("code", "authorization code is required")
	}
	if in.State == "" {
		return nil, apperrors.ValidationField("state", "state parameter is required")
	}
	if in.Nonce == "" {
		return nil, apperrors.ValidationField("nonce", "nonce parameter is required")
	}
	if in.State != in.ExpectedState {
		return nil, apperrors.Authentication("Sign-in request expired. Please try again.", nil)
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	sess, err := s.establish(ctx, in.Key, identity)
	if err != nil {
		return nil, err
	}
	return &CompleteLoginResult{Session: sess}, nil
}

// SignInInput carries the password sign-in form.
type SignInInput struct {
	Key      string
	Email    string
	Password string
}

// SignIn validates the form, authenticates with the provider, stores the
// session and publishes signed-in.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*domainauth.Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, apperrors.ValidationField("email", "Email is required")
	}
	if in.Password == "" {
		return nil, apperrors.ValidationField("password", "Password is required")
	}
	if in.Key == "" {
		return nil, errors.New("client key is required")
	}

	identity, err := s.provider.SignIn(ctx, email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	sess, err := s.establish(ctx, in.Key, identity)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, in.Key, nil))
	return &sess, nil
}

// establish stores a session for identity, then enriches it with provider
// attributes. Attribute failures are logged and never undo the sign-in.
func (s *AuthService) establish(
	ctx context.Context,
	key string,
	identity domainauth.Identity,
) (domainauth.Session, error) {
	provider := identity.Provider
	if provider == "" {
		provider = domainauth.ProviderEmail
	}
	sess := domainauth.Session{
		ID:          key,
		Identifier:  identity.Identifier,
		Attributes:  identity.Attributes.Clone(),
		Provider:    provider,
		AccessToken: identity.AccessToken,
		ExpiresAt:   identity.ExpiresAt,
	}
	if err := s.sessions.Set(ctx, key, sess); err != nil {
		return domainauth.Session{}, err
	}

	if sess.AccessToken != "" {
		attrs, err := s.sessions.FetchAttributes(ctx, key, sess)
		if err != nil {
			s.logger.WarnContext(ctx, "attribute fetch failed; keeping session", "error", err)
		} else {
			sess.Attributes = sess.Attributes.Merge(attrs)
		}
	}
	return sess, nil
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
}

// SignUp validates the registration form and registers the account.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) error {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return apperrors.ValidationField("email", "Email is required")
	}
	if in.Password == "" {
		return apperrors.ValidationField("password", "Password is required")
	}
	if in.Password != in.ConfirmPassword {
		return apperrors.ValidationField("confirm_password", "Passwords do not match")
	}

	if err := s.provider.SignUp(ctx, ports.SignUpInput{
		Email:    email,
		Password: in.Password,
		Name:     strings.TrimSpace(in.Name),
	}); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}

// ConfirmSignUp validates and submits the emailed confirmation code.
func (s *AuthService) ConfirmSignUp(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" {
		return apperrors.ValidationField("email", "Email is required")
	}
	if !confirmationCodePattern.MatchString(code) {
		return apperrors.ValidationField("code", "Confirmation code must be 6 digits")
	}
	if err := s.provider.ConfirmSignUp(ctx, email, code); err != nil {
		return fmt.Errorf("confirm sign up: %w", err)
	}
	return nil
}

// SignOut revokes provider tokens, clears local state and publishes
// signed-out. Provider errors are logged and ignored.
func (s *AuthService) SignOut(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if sess, ok := s.sessions.Get(ctx, key); ok && sess.AccessToken != "" {
		if err := s.provider.SignOut(ctx, sess.AccessToken); err != nil {
			s.logger.WarnContext(ctx, "provider sign out failed", "error", err)
		}
	}

	err := s.sessions.Clear(ctx, key)
	s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedOut, key, nil))
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SimulateSignIn writes an override record for key and publishes signed-in.
// An empty email uses DefaultSimulatedEmail; an empty name derives from the email.
func (s *AuthService) SimulateSignIn(ctx context.Context, key, email, name string) (domainauth.Record, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		email = DefaultSimulatedEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = NameFromEmail(email)
	}

	rec := domainauth.Record{
		Identifier: email,
		Attributes: domainauth.Attributes{
			domainauth.AttrEmail: email,
			domainauth.AttrName:  name,
		},
	}
	if err := s.sessions.SetOverride(ctx, key, rec); err != nil {
		return domainauth.Record{}, err
	}
	s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, key, map[string]string{"simulated": "true"}))
	return rec, nil
}

// SimulateSignOut clears key and publishes signed-out.
func (s *AuthService) SimulateSignOut(ctx context.Context, key string) error {
	err := s.sessions.Clear(ctx, key)
	s.events.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedOut, key, map[string]string{"simulated": "true"}))
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// PublishTestEvent publishes an arbitrary lifecycle event for key.
func (s *AuthService) PublishTestEvent(
	ctx context.Context,
	key string,
	tag domainauth.EventTag,
	payload map[string]string,
) {
	s.events.Publish(ctx, domainauth.NewEvent(tag, key, payload))
}

// NameFromEmail capitalizes the local part of email: "jane@example.com" -> "Jane".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return domainauth.FallbackDisplayName
	}
	r := []rune(local)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
