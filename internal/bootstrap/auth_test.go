package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/knowlio-web/config"
	"github.com/target/knowlio-web/internal/adapters/cognito"
	"github.com/target/knowlio-web/internal/adapters/devauth"
	"github.com/target/knowlio-web/internal/adapters/oidc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newDiscoveryServer serves a minimal OIDC discovery document.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildIdentityProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("mock mode builds the dev provider", func(t *testing.T) {
		prov, err := BuildIdentityProvider(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeMock,
				DevAuth: config.DevAuthConfig{
					Email:    "dev@example.com",
					Name:     "Dev User",
					Password: "password123",
				},
			},
			Logger: discardLogger(),
		})
		require.NoError(t, err)
		assert.IsType(t, &devauth.Provider{}, prov)
	})

	t.Run("mock mode without password fails", func(t *testing.T) {
		_, err := BuildIdentityProvider(ctx, AuthConfig{
			Auth:   config.AuthConfig{Mode: config.AuthModeMock, DevAuth: config.DevAuthConfig{Email: "dev@example.com"}},
			Logger: discardLogger(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dev auth provider")
	})

	t.Run("oauth mode discovers the issuer", func(t *testing.T) {
		srv := newDiscoveryServer(t)
		prov, err := BuildIdentityProvider(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeOAuth,
				OAuth: config.OAuthConfig{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					RedirectURL:  "https://app.example.com/auth/callback",
					Scope:        "openid email",
					DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
					Claims: config.ClaimsConfig{
						Identifier: "email || sub",
						Name:       "name",
					},
				},
			},
			Logger: discardLogger(),
		})
		require.NoError(t, err)
		assert.IsType(t, &oidc.Provider{}, prov)
	})

	t.Run("oauth mode rejects a bad claim expression", func(t *testing.T) {
		srv := newDiscoveryServer(t)
		_, err := BuildIdentityProvider(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeOAuth,
				OAuth: config.OAuthConfig{
					ClientID:     "client-id",
					RedirectURL:  "https://app.example.com/auth/callback",
					DiscoveryURL: srv.URL,
					Claims:       config.ClaimsConfig{Identifier: "email["},
				},
			},
			Logger: discardLogger(),
		})
		require.Error(t, err)
	})

	t.Run("cognito mode without user pool builds password-only provider", func(t *testing.T) {
		prov, err := BuildIdentityProvider(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeCognito,
				Cognito: config.CognitoConfig{
					Region:          "us-east-1",
					ClientID:        "pool-client",
					Endpoint:        "http://127.0.0.1:9229",
					AccessKeyID:     "test",
					SecretAccessKey: "test",
				},
			},
			Logger: discardLogger(),
		})
		require.NoError(t, err)
		assert.IsType(t, &cognito.Provider{}, prov)
	})

	t.Run("cognito mode requires a client ID", func(t *testing.T) {
		_, err := BuildIdentityProvider(ctx, AuthConfig{
			Auth:   config.AuthConfig{Mode: config.AuthModeCognito},
			Logger: discardLogger(),
		})
		require.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := BuildIdentityProvider(ctx, AuthConfig{Auth: config.AuthConfig{Mode: "saml"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported auth mode")
	})
}

func TestClaimExpressions(t *testing.T) {
	got := claimExpressions(config.ClaimsConfig{
		Identifier: "sub",
		Name:       "name",
		Email:      "email",
		GivenName:  "given_name",
		FamilyName: "family_name",
		Provider:   "idp",
	})
	assert.Equal(t, oidc.ClaimExpressions{
		Identifier: "sub",
		Name:       "name",
		Email:      "email",
		GivenName:  "given_name",
		FamilyName: "family_name",
		Provider:   "idp",
	}, got)
}
