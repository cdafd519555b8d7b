package devauth

// Package devauth provides a simple, config-driven IdentityProvider for local development.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/ports"
)

// Config controls the dev auth provider behavior.
// Email and Password are required; the remaining fields have defaults.
type Config struct {
	Email            string
	Name             string
	Password         string
	ConfirmationCode string
	// GoogleEmail and GoogleGivenName describe the identity returned by the
	// redirect flow. Only given_name is reported, like a sparse Google profile.
	GoogleEmail     string
	GoogleGivenName string
	SessionDuration time.Duration // default 8h when zero
	Now             func() time.Time
}

type user struct {
	hash      []byte
	attrs     domainauth.Attributes
	confirmed bool
}

// Provider implements ports.IdentityProvider for local development.
// Password users live in memory; the redirect flow short-circuits to our own
// callback and Exchange ignores the code.
type Provider struct {
	cfg Config

	mu     sync.Mutex
	users  map[string]*user
	tokens map[string]string // access token -> username
}

// NewProvider constructs a dev auth provider from Config and seeds the configured user.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.Email = normalize(cfg.Email)
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}
	if cfg.ConfirmationCode == "" {
		cfg.ConfirmationCode = "123456"
	}
	if cfg.GoogleEmail == "" {
		cfg.GoogleEmail = "dev.google@example.com"
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	p := &Provider{
		cfg:    cfg,
		users:  make(map[string]*user),
		tokens: make(map[string]string),
	}
	attrs := domainauth.Attributes{domainauth.AttrEmail: cfg.Email}
	if cfg.Name != "" {
		attrs[domainauth.AttrName] = cfg.Name
	}
	if err := p.addUser(cfg.Email, cfg.Password, attrs, true); err != nil {
		return nil, err
	}
	return p, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// Our standard handler expects GET /auth/callback?code=...&state=...
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by handler) and returns the Google dev identity.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, apperrors.Authentication(apperrors.MsgAuthenticationFailed, errors.New("missing code"))
	}
	attrs := domainauth.Attributes{}
	if p.cfg.GoogleGivenName != "" {
		attrs[domainauth.AttrGivenName] = p.cfg.GoogleGivenName
	}
	token, err := p.issueToken(p.cfg.GoogleEmail)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return domainauth.Identity{
		Identifier:  p.cfg.GoogleEmail,
		Attributes:  attrs,
		Provider:    domainauth.ProviderGoogle,
		AccessToken: token,
		ExpiresAt:   p.cfg.Now().Add(p.cfg.SessionDuration),
	}, nil
}

func (p *Provider) SignIn(_ context.Context, username, password string) (domainauth.Identity, error) {
	username = normalize(username)

	p.mu.Lock()
	u, ok := p.users[username]
	p.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return domainauth.Identity{}, apperrors.Authentication("Incorrect username or password.", nil)
	}
	if !u.confirmed {
		return domainauth.Identity{}, apperrors.Authentication("Please confirm your account before signing in.", nil)
	}

	token, err := p.issueToken(username)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return domainauth.Identity{
		Identifier:  username,
		Attributes:  domainauth.Attributes{domainauth.AttrEmail: username},
		Provider:    domainauth.ProviderEmail,
		AccessToken: token,
		ExpiresAt:   p.cfg.Now().Add(p.cfg.SessionDuration),
	}, nil
}

func (p *Provider) SignUp(_ context.Context, in ports.SignUpInput) error {
	username := normalize(in.Email)
	if username == "" {
		return apperrors.ValidationField("email", "Email is required.")
	}
	if len(in.Password) < 8 {
		return apperrors.ValidationField("password", "Password must be at least 8 characters.")
	}
	attrs := domainauth.Attributes{domainauth.AttrEmail: username}
	if name := strings.TrimSpace(in.Name); name != "" {
		attrs[domainauth.AttrName] = name
	}
	return p.addUser(username, in.Password, attrs, false)
}

func (p *Provider) ConfirmSignUp(_ context.Context, username, code string) error {
	username = normalize(username)

	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[username]
	if !ok {
		return apperrors.Authentication("Incorrect username or password.", nil)
	}
	if strings.TrimSpace(code) != p.cfg.ConfirmationCode {
		return apperrors.Authentication("Invalid or expired confirmation code.", nil)
	}
	u.confirmed = true
	return nil
}

// SignOut invalidates the access token. Unknown tokens are ignored.
func (p *Provider) SignOut(_ context.Context, accessToken string) error {
	p.mu.Lock()
	delete(p.tokens, accessToken)
	p.mu.Unlock()
	return nil
}

func (p *Provider) FetchAttributes(_ context.Context, accessToken string) (domainauth.Attributes, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	username, ok := p.tokens[accessToken]
	if !ok {
		return nil, apperrors.Authentication("access token is not valid", nil)
	}
	if username == p.cfg.GoogleEmail {
		out := domainauth.Attributes{}
		if p.cfg.GoogleGivenName != "" {
			out[domainauth.AttrGivenName] = p.cfg.GoogleGivenName
		}
		return out, nil
	}
	u, ok := p.users[username]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return u.attrs.Clone(), nil
}

func (p *Provider) addUser(username, password string, attrs domainauth.Attributes, confirmed bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.users[username]; ok && existing.confirmed {
		return apperrors.Authentication("An account with this email already exists.", nil)
	}
	p.users[username] = &user{hash: hash, attrs: attrs, confirmed: confirmed}
	return nil
}

func (p *Provider) issueToken(username string) (string, error) {
	token, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	p.mu.Lock()
	p.tokens[token] = username
	p.mu.Unlock()
	return token, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		// pad
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}

var _ ports.IdentityProvider = (*Provider)(nil)
