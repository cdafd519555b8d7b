package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.Navigator        = (*RecordingNavigator)(nil)
)

// MockIdentityProvider simulates an IdP for tests with deterministic state/nonce handling.
// Any Func field left nil falls back to a successful default.
type MockIdentityProvider struct {
	BeginFunc           func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc        func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)
	SignInFunc          func(ctx context.Context, username, password string) (domainauth.Identity, error)
	SignUpFunc          func(ctx context.Context, in ports.SignUpInput) error
	ConfirmSignUpFunc   func(ctx context.Context, username, code string) error
	SignOutFunc         func(ctx context.Context, accessToken string) error
	FetchAttributesFunc func(ctx context.Context, accessToken string) (domainauth.Attributes, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
	signOuts  []string
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		Identifier:  "mock.user@example.com",
		Attributes:  domainauth.Attributes{domainauth.AttrName: "Mock User", domainauth.AttrEmail: "mock.user@example.com"},
		Provider:    domainauth.ProviderEmail,
		AccessToken: "mock-access-token",
	}
}

func (m *MockIdentityProvider) user() domainauth.Identity {
	u := m.DefaultUser
	if u.Identifier == "" {
		u = defaultIdentity()
	}
	u.Attributes = u.Attributes.Clone()
	u.ExpiresAt = time.Now().Add(time.Hour)
	return u
}

func (m *MockIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	u := m.user()
	u.Provider = domainauth.ProviderGoogle
	return u, nil
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, username, password string) (domainauth.Identity, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, username, password)
	}
	return m.user(), nil
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, in ports.SignUpInput) error {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, in)
	}
	return nil
}

func (m *MockIdentityProvider) ConfirmSignUp(ctx context.Context, username, code string) error {
	if m.ConfirmSignUpFunc != nil {
		return m.ConfirmSignUpFunc(ctx, username, code)
	}
	return nil
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	m.signOuts = append(m.signOuts, accessToken)
	m.mu.Unlock()
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, accessToken)
	}
	return nil
}

// SignOutCalls returns the access tokens passed to SignOut, in order.
func (m *MockIdentityProvider) SignOutCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.signOuts...)
}

func (m *MockIdentityProvider) FetchAttributes(ctx context.Context, accessToken string) (domainauth.Attributes, error) {
	if m.FetchAttributesFunc != nil {
		return m.FetchAttributesFunc(ctx, accessToken)
	}
	return m.user().Attributes, nil
}

// Navigation is one recorded Navigate call.
type Navigation struct {
	Scope  string
	Target string
}

// RecordingNavigator records navigation side effects for assertions.
type RecordingNavigator struct {
	mu    sync.Mutex
	calls []Navigation
}

func (n *RecordingNavigator) Navigate(_ context.Context, scope, target string) {
	n.mu.Lock()
	n.calls = append(n.calls, Navigation{Scope: scope, Target: target})
	n.mu.Unlock()
}

// Calls returns a copy of the recorded navigations.
func (n *RecordingNavigator) Calls() []Navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Navigation(nil), n.calls...)
}

// RecordingPublisher collects published events instead of dispatching them.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domainauth.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, ev domainauth.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

// Events returns a copy of the published events.
func (p *RecordingPublisher) Events() []domainauth.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domainauth.Event(nil), p.events...)
}

// Tags returns the tags of the published events, in order.
func (p *RecordingPublisher) Tags() []domainauth.EventTag {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domainauth.EventTag, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Tag
	}
	return out
}

var _ ports.EventPublisher = (*RecordingPublisher)(nil)
