package oidc

// Package oidc provides the OIDC/OAuth redirect sign-in adapter. It backs the
// generic "oauth" auth mode and the hosted UI of the Cognito adapter.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// Provider implements ports.IdentityProvider for redirect-only OIDC issuers.
// Password flows return ports.ErrUnsupported.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	prompt     string
	httpClient *http.Client
	claims     *ClaimMapper

	// go-oidc provider and verifier
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	// Prompt is sent as the prompt parameter when non-empty (e.g. "select_account").
	Prompt     string
	Claims     ClaimExpressions
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider. ctx bounds the discovery fetch.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	exprs := config.Claims
	if exprs == (ClaimExpressions{}) {
		exprs = DefaultClaimExpressions()
	}
	mapper, err := NewClaimMapper(exprs)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		logoutURL:  config.LogoutURL,
		prompt:     config.Prompt,
		httpClient: httpClient,
		claims:     mapper,
	}

	// Single discovery fetch; the HTTP client travels in ctx for go-oidc.
	ctx = gooidc.ClientContext(ctx, httpClient)
	op, err := gooidc.NewProvider(ctx, IssuerFromDiscoveryURL(config.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// IssuerFromDiscoveryURL strips the well-known suffix from a discovery URL.
func IssuerFromDiscoveryURL(u string) string {
	issuer := strings.TrimSuffix(u, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, ".well-known/openid-configuration")
}

// LogoutURL returns the configured end-session URL, if any.
func (p *Provider) LogoutURL() string { return p.logoutURL }

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}

	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri is not overridden: it must match the registered RedirectURL exactly.
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	}
	if p.prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", p.prompt))
	}
	if in.IdentityProvider != "" {
		opts = append(opts, oauth2.SetAuthURLParam("identity_provider", in.IdentityProvider))
	}

	return p.config.AuthCodeURL(state, opts...), state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.extractFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}

	// Fill missing claims from UserInfo
	if p.claims.Identifier(claims) == "" || len(p.claims.Attributes(claims)) == 0 {
		ui, uiErr := p.userInfoClaims(ctx, token.AccessToken)
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		claims = mergeClaims(claims, ui)
	}

	identifier := p.claims.Identifier(claims)
	if identifier == "" {
		return domainauth.Identity{}, errors.New("identity provider returned no identifier")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return domainauth.Identity{
		Identifier:  identifier,
		Attributes:  p.claims.Attributes(claims),
		Provider:    p.claims.Provider(claims),
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// FetchAttributes reloads attributes from the userinfo endpoint.
func (p *Provider) FetchAttributes(ctx context.Context, accessToken string) (domainauth.Attributes, error) {
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}
	claims, err := p.userInfoClaims(gooidc.ClientContext(ctx, p.httpClient), accessToken)
	if err != nil {
		return nil, err
	}
	return p.claims.Attributes(claims), nil
}

// SignOut is local only; the end-session redirect is handled by the HTTP layer.
func (p *Provider) SignOut(context.Context, string) error { return nil }

func (p *Provider) SignIn(context.Context, string, string) (domainauth.Identity, error) {
	return domainauth.Identity{}, ports.ErrUnsupported
}

func (p *Provider) SignUp(context.Context, ports.SignUpInput) error { return ports.ErrUnsupported }

func (p *Provider) ConfirmSignUp(context.Context, string, string) error { return ports.ErrUnsupported }

func (p *Provider) userInfoClaims(ctx context.Context, accessToken string) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	claims := map[string]any{}
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("decode user info: %w", claimsErr)
	}
	return claims, nil
}

func (p *Provider) extractFromIDToken(
	ctx context.Context,
	tok *oauth2.Token,
	expectedNonce string,
) (map[string]any, error) {
	claims := map[string]any{}
	if !p.hasOpenIDScope() {
		return claims, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if expectedNonce != "" && idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return claims, nil
}

// mergeClaims overlays extra onto base without replacing present keys.
func mergeClaims(base, extra map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Enough random bytes to produce at least length base64 URL-safe chars.
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// hasOpenIDScope reports whether the configured scopes include "openid".
func (p *Provider) hasOpenIDScope() bool {
	return slices.Contains(p.config.Scopes, "openid")
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}

var _ ports.IdentityProvider = (*Provider)(nil)
