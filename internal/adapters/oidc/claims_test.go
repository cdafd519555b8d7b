package oidc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

func TestClaimMapper_Defaults(t *testing.T) {
	m, err := NewClaimMapper(DefaultClaimExpressions())
	require.NoError(t, err)

	claims := map[string]any{
		"sub":        "abc",
		"email":      "jane@example.com",
		"name":       " Jane Doe ",
		"given_name": "Jane",
	}

	assert.Equal(t, "jane@example.com", m.Identifier(claims))
	assert.Equal(t, domainauth.Attributes{
		domainauth.AttrName:      "Jane Doe",
		domainauth.AttrEmail:     "jane@example.com",
		domainauth.AttrGivenName: "Jane",
		domainauth.AttrSubject:   "abc",
	}, m.Attributes(claims))
	assert.Equal(t, domainauth.ProviderEmail, m.Provider(claims))
}

func TestClaimMapper_IdentifierFallsBackToSubject(t *testing.T) {
	m, err := NewClaimMapper(DefaultClaimExpressions())
	require.NoError(t, err)

	assert.Equal(t, "google_123", m.Identifier(map[string]any{"sub": "google_123"}))
	assert.Empty(t, m.Identifier(map[string]any{}))
}

func TestClaimMapper_GoogleIdentity(t *testing.T) {
	m, err := NewClaimMapper(DefaultClaimExpressions())
	require.NoError(t, err)

	claims := map[string]any{
		"sub": "abc",
		"identities": []any{
			map[string]any{"providerName": "Google", "userId": "1"},
		},
	}
	assert.Equal(t, domainauth.ProviderGoogle, m.Provider(claims))
}

func TestClaimMapper_CustomExpressions(t *testing.T) {
	m, err := NewClaimMapper(ClaimExpressions{
		Identifier: "preferred_username",
		Name:       "profile.display",
	})
	require.NoError(t, err)

	claims := map[string]any{
		"preferred_username": "jdoe",
		"profile":            map[string]any{"display": "J. Doe"},
		"email":              "ignored@example.com",
	}
	assert.Equal(t, "jdoe", m.Identifier(claims))
	assert.Equal(t, domainauth.Attributes{domainauth.AttrName: "J. Doe"}, m.Attributes(claims))
}

func TestClaimMapper_NonStringResultsIgnored(t *testing.T) {
	m, err := NewClaimMapper(ClaimExpressions{Name: "name"})
	require.NoError(t, err)
	assert.Empty(t, m.Attributes(map[string]any{"name": 42}))
	assert.Empty(t, m.Attributes(nil))
}

func TestNewClaimMapper_InvalidExpression(t *testing.T) {
	_, err := NewClaimMapper(ClaimExpressions{Email: "a[?"})
	assert.Error(t, err)
}
