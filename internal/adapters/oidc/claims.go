package oidc

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

// ClaimExpressions are JMESPath expressions evaluated against the merged
// ID token and userinfo claims. Empty expressions are skipped.
type ClaimExpressions struct {
	Identifier string
	Name       string
	Email      string
	GivenName  string
	FamilyName string
	// Provider marks the session as federated (Google) when it yields a non-empty value.
	Provider string
}

// DefaultClaimExpressions maps standard OIDC claims.
func DefaultClaimExpressions() ClaimExpressions {
	return ClaimExpressions{
		Identifier: "email || sub",
		Name:       "name",
		Email:      "email",
		GivenName:  "given_name",
		FamilyName: "family_name",
		Provider:   "identities[?providerName=='Google'] | [0].providerName",
	}
}

// ClaimMapper turns raw claims into an identifier, attributes and provider.
type ClaimMapper struct {
	exprs ClaimExpressions
}

// NewClaimMapper validates every expression up front.
func NewClaimMapper(exprs ClaimExpressions) (*ClaimMapper, error) {
	for name, expr := range map[string]string{
		"identifier":  exprs.Identifier,
		"name":        exprs.Name,
		"email":       exprs.Email,
		"given_name":  exprs.GivenName,
		"family_name": exprs.FamilyName,
		"provider":    exprs.Provider,
	} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid %s claim expression %q: %w", name, expr, err)
		}
	}
	return &ClaimMapper{exprs: exprs}, nil
}

// Attributes extracts the display attributes present in claims.
func (m *ClaimMapper) Attributes(claims map[string]any) domainauth.Attributes {
	attrs := domainauth.Attributes{}
	for key, expr := range map[string]string{
		domainauth.AttrName:       m.exprs.Name,
		domainauth.AttrEmail:      m.exprs.Email,
		domainauth.AttrGivenName:  m.exprs.GivenName,
		domainauth.AttrFamilyName: m.exprs.FamilyName,
	} {
		if v := searchString(expr, claims); v != "" {
			attrs[key] = v
		}
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		attrs[domainauth.AttrSubject] = sub
	}
	return attrs
}

// Identifier extracts the stable identifier.
func (m *ClaimMapper) Identifier(claims map[string]any) string {
	return searchString(m.exprs.Identifier, claims)
}

// Provider reports how the user authenticated upstream.
func (m *ClaimMapper) Provider(claims map[string]any) domainauth.Provider {
	if v := searchString(m.exprs.Provider, claims); strings.EqualFold(v, "google") {
		return domainauth.ProviderGoogle
	}
	return domainauth.ProviderEmail
}

// searchString evaluates expr and returns a trimmed string result; anything
// else (errors, nulls, non-strings) yields "".
func searchString(expr string, data map[string]any) string {
	if strings.TrimSpace(expr) == "" || data == nil {
		return ""
	}
	out, err := jmespath.Search(expr, data)
	if err != nil {
		return ""
	}
	s, ok := out.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
