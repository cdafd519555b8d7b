package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	apperrors "github.com/target/knowlio-web/internal/errors"
	mocks "github.com/target/knowlio-web/internal/mocks/auth"
	"github.com/target/knowlio-web/internal/ports"
)

type authFixture struct {
	svc      *AuthService
	provider *mocks.MockIdentityProvider
	sessions *SessionService
	events   *mocks.RecordingPublisher
}

func newAuthFixture() authFixture {
	provider := mocks.NewMockIdentityProvider()
	sessions := newTestSessionService(provider)
	events := &mocks.RecordingPublisher{}
	return authFixture{
		svc:      NewAuthService(AuthServiceOptions{Provider: provider, Sessions: sessions, Events: events}),
		provider: provider,
		sessions: sessions,
		events:   events,
	}
}

func TestNewAuthService_PanicsOnMissingDeps(t *testing.T) {
	f := newAuthFixture()
	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{Sessions: f.sessions, Events: f.events}) })
	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{Provider: f.provider, Events: f.events}) })
	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{Provider: f.provider, Sessions: f.sessions}) })
}

func TestAuthService_BeginLogin_Success(t *testing.T) {
	f := newAuthFixture()

	result, err := f.svc.BeginLogin(context.Background(), BeginLoginInput{
		Key:              "k",
		RedirectURL:      "http://localhost:8080/auth/callback",
		IdentityProvider: "Google",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", result.AuthURL)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "nonce-1", result.Nonce)

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, domainauth.TagSignInInitiated, evs[0].Tag)
	assert.Equal(t, "k", evs[0].Scope)
	assert.Equal(t, "Google", evs[0].Payload["provider"])
}

func TestAuthService_BeginLogin_Errors(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.BeginLogin(context.Background(), BeginLoginInput{Key: "k"})
	require.Error(t, err)

	f.provider.BeginFunc = func(context.Context, ports.BeginInput) (string, string, string, error) {
		return "", "", "", errors.New("idp down")
	}
	_, err = f.svc.BeginLogin(context.Background(), BeginLoginInput{Key: "k", RedirectURL: "http://x/cb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin auth flow")
	assert.Empty(t, f.events.Events(), "no event when the flow never started")
}

func TestAuthService_CompleteLogin_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	res, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{
		Key: "k", Code: "c", State: "s", ExpectedState: "s", Nonce: "n", CustomState: "/publisher-dashboard",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.ProviderGoogle, res.Session.Provider)

	sess, ok := f.sessions.Get(ctx, "k")
	require.True(t, ok, "session is stored before the event is observable")
	assert.Equal(t, "mock.user@example.com", sess.Identifier)

	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignInSucceeded, domainauth.TagCustomState}, f.events.Tags())
	assert.Equal(t, "/publisher-dashboard", f.events.Events()[1].Payload["state"])
}

func TestAuthService_CompleteLogin_ValidationPublishesFailure(t *testing.T) {
	tests := []struct {
		name  string
		in    CompleteLoginInput
		field string
	}{
		{"missing code", CompleteLoginInput{Key: "k", State: "s", Nonce: "n"}, "code"},
		{"missing state", CompleteLoginInput{Key: "k", Code: "c", Nonce: "n"}, "state"},
		{"missing nonce", CompleteLoginInput{Key: "k", Code: "c", State: "s"}, "nonce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			_, err := f.svc.CompleteLogin(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Equal(t, []domainauth.EventTag{domainauth.TagSignInFailed}, f.events.Tags())
		})
	}
}

func TestAuthService_CompleteLogin_StateMismatch(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	_, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{
		Key: "k", Code: "c", State: "s", ExpectedState: "other", Nonce: "n",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))

	_, ok := f.sessions.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignInFailed}, f.events.Tags())
}

func TestAuthService_CompleteLogin_ExchangeFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
		return domainauth.Identity{}, apperrors.Authentication("Invalid grant.", nil)
	}

	_, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{Key: "k", Code: "c", State: "s", ExpectedState: "s", Nonce: "n"})
	require.Error(t, err)

	_, ok := f.sessions.Get(ctx, "k")
	assert.False(t, ok)
	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, domainauth.TagSignInFailed, evs[0].Tag)
	assert.Equal(t, "Invalid grant.", evs[0].Payload["error"])
	assert.Equal(t, "authentication", evs[0].Payload["error_class"])
}

func TestAuthService_SignIn_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.provider.FetchAttributesFunc = func(context.Context, string) (domainauth.Attributes, error) {
		return domainauth.Attributes{domainauth.AttrGivenName: "Mocky"}, nil
	}

	sess, err := f.svc.SignIn(ctx, SignInInput{Key: "k", Email: " mock.user@example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Mocky", sess.Attributes.Get(domainauth.AttrGivenName))
	assert.Equal(t, "Mock User", sess.Attributes.Get(domainauth.AttrName))

	stored, ok := f.sessions.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "Mocky", stored.Attributes.Get(domainauth.AttrGivenName))
	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignedIn}, f.events.Tags())
}

func TestAuthService_SignIn_AttributeFailureStillSignsIn(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.provider.FetchAttributesFunc = func(context.Context, string) (domainauth.Attributes, error) {
		return nil, errors.New("attributes unavailable")
	}

	_, err := f.svc.SignIn(ctx, SignInInput{Key: "k", Email: "a@b.co", Password: "secret123"})
	require.NoError(t, err)

	_, ok := f.sessions.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignedIn}, f.events.Tags())
}

func TestAuthService_SignIn_Validation(t *testing.T) {
	f := newAuthFixture()

	err := signInErr(f, SignInInput{Key: "k", Password: "x"})
	assert.Equal(t, "email", apperrors.GetField(err))

	err = signInErr(f, SignInInput{Key: "k", Email: "a@b.co"})
	assert.Equal(t, "password", apperrors.GetField(err))
	assert.Empty(t, f.events.Events())
}

func signInErr(f authFixture, in SignInInput) error {
	_, err := f.svc.SignIn(context.Background(), in)
	return err
}

func TestAuthService_SignIn_ProviderError(t *testing.T) {
	f := newAuthFixture()
	f.provider.SignInFunc = func(context.Context, string, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, apperrors.Authentication("Incorrect username or password.", nil)
	}

	_, err := f.svc.SignIn(context.Background(), SignInInput{Key: "k", Email: "a@b.co", Password: "bad"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Equal(t, "Incorrect username or password.", apperrors.UserMessage(err, ""))
	assert.Empty(t, f.events.Events())
}

func TestAuthService_SignUp(t *testing.T) {
	f := newAuthFixture()
	var got ports.SignUpInput
	f.provider.SignUpFunc = func(_ context.Context, in ports.SignUpInput) error {
		got = in
		return nil
	}

	err := f.svc.SignUp(context.Background(), SignUpInput{
		Email: "a@b.co", Password: "secret123", ConfirmPassword: "secret123", Name: " Ann ",
	})
	require.NoError(t, err)
	assert.Equal(t, ports.SignUpInput{Email: "a@b.co", Password: "secret123", Name: "Ann"}, got)

	err = f.svc.SignUp(context.Background(), SignUpInput{Email: "a@b.co", Password: "one", ConfirmPassword: "two"})
	require.Error(t, err)
	assert.Equal(t, "confirm_password", apperrors.GetField(err))
	assert.Equal(t, "Passwords do not match", apperrors.UserMessage(err, ""))
}

func TestAuthService_ConfirmSignUp(t *testing.T) {
	f := newAuthFixture()
	called := false
	f.provider.ConfirmSignUpFunc = func(_ context.Context, username, code string) error {
		called = true
		assert.Equal(t, "a@b.co", username)
		assert.Equal(t, "123456", code)
		return nil
	}

	require.NoError(t, f.svc.ConfirmSignUp(context.Background(), "a@b.co", " 123456 "))
	assert.True(t, called)

	err := f.svc.ConfirmSignUp(context.Background(), "a@b.co", "12ab56")
	assert.Equal(t, "code", apperrors.GetField(err))
}

func TestAuthService_SignOut(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.provider.SignOutFunc = func(context.Context, string) error { return errors.New("revocation failed") }

	_, err := f.svc.SignIn(ctx, SignInInput{Key: "k", Email: "a@b.co", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, "k"), "provider errors are swallowed")
	assert.Equal(t, []string{"mock-access-token"}, f.provider.SignOutCalls())

	_, ok := f.sessions.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignedIn, domainauth.TagSignedOut}, f.events.Tags())
}

func TestAuthService_SignOut_WithoutSession(t *testing.T) {
	f := newAuthFixture()
	require.NoError(t, f.svc.SignOut(context.Background(), "k"))
	assert.Empty(t, f.provider.SignOutCalls())
	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignedOut}, f.events.Tags())
}

func TestAuthService_SimulateSignIn(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	rec, err := f.svc.SimulateSignIn(ctx, "k", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulatedEmail, rec.Identifier)
	assert.Equal(t, "User", rec.Attributes.Get(domainauth.AttrName))

	sess, ok := f.sessions.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, domainauth.ProviderSimulated, sess.Provider)
	assert.Equal(t, "User", domainauth.SessionDisplayName(sess))

	_, err = f.svc.SimulateSignIn(ctx, "k", "jane.doe@example.com", "")
	require.NoError(t, err)
	sess, _ = f.sessions.Get(ctx, "k")
	assert.Equal(t, "Jane.doe", sess.Attributes.Get(domainauth.AttrName))

	require.NoError(t, f.svc.SimulateSignOut(ctx, "k"))
	_, ok = f.sessions.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, []domainauth.EventTag{
		domainauth.TagSignedIn, domainauth.TagSignedIn, domainauth.TagSignedOut,
	}, f.events.Tags())
}

func TestAuthService_PublishTestEvent(t *testing.T) {
	f := newAuthFixture()
	f.svc.PublishTestEvent(context.Background(), "k", domainauth.TagCustomState, map[string]string{"state": "x"})
	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "k", evs[0].Scope)
	assert.Equal(t, "x", evs[0].Payload["state"])
}

func TestNameFromEmail(t *testing.T) {
	assert.Equal(t, "Jane", NameFromEmail("jane@example.com"))
	assert.Equal(t, "User", NameFromEmail("user@example.com"))
	assert.Equal(t, "User", NameFromEmail(""))
}
