package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

func TestMockIdentityProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockIdentityProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	// Second call should increment counters
	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockIdentityProvider_Begin_CustomFunc(t *testing.T) {
	provider := &MockIdentityProvider{
		BeginFunc: func(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
			return "custom-url", "custom-state", "custom-nonce", nil
		},
	}

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "custom-url", authURL)
	assert.Equal(t, "custom-state", state)
	assert.Equal(t, "custom-nonce", nonce)
}

func TestMockIdentityProvider_Defaults(t *testing.T) {
	provider := &MockIdentityProvider{}
	ctx := context.Background()

	id, err := provider.SignIn(ctx, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "mock.user@example.com", id.Identifier)
	assert.False(t, id.ExpiresAt.IsZero())

	id, err = provider.Exchange(ctx, ports.ExchangeInput{Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.ProviderGoogle, id.Provider)

	attrs, err := provider.FetchAttributes(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Mock User", attrs.Get(domainauth.AttrName))

	// Attribute maps are independent copies
	attrs[domainauth.AttrName] = "changed"
	again, err := provider.FetchAttributes(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Mock User", again.Get(domainauth.AttrName))
}

func TestMockIdentityProvider_SignOutRecordsCalls(t *testing.T) {
	boom := errors.New("boom")
	provider := &MockIdentityProvider{SignOutFunc: func(context.Context, string) error { return boom }}

	err := provider.SignOut(context.Background(), "tok-1")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"tok-1"}, provider.SignOutCalls())
}

func TestRecordingNavigatorAndPublisher(t *testing.T) {
	nav := &RecordingNavigator{}
	nav.Navigate(context.Background(), "k1", "/dashboard")
	assert.Equal(t, []Navigation{{Scope: "k1", Target: "/dashboard"}}, nav.Calls())

	pub := &RecordingPublisher{}
	pub.Publish(context.Background(), domainauth.NewEvent(domainauth.TagSignedIn, "k1", nil))
	pub.Publish(context.Background(), domainauth.NewEvent(domainauth.TagSignedOut, "k1", nil))
	assert.Equal(t, []domainauth.EventTag{domainauth.TagSignedIn, domainauth.TagSignedOut}, pub.Tags())
	assert.Len(t, pub.Events(), 2)
}
