package devauth

import (
	"context"
	"strings"
	"testing"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	prov, err := NewProvider(Config{
		Email:           "Dev@Example.com",
		Name:            "Dev User",
		Password:        "password123",
		GoogleGivenName: "Dev",
	})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	return prov
}

func TestNewProvider_RequiresCredentials(t *testing.T) {
	if _, err := NewProvider(Config{Password: "x"}); err == nil {
		t.Fatal("expected error without email")
	}
	if _, err := NewProvider(Config{Email: "a@b.co"}); err == nil {
		t.Fatal("expected error without password")
	}
}

func TestProvider_BeginAndExchange(t *testing.T) {
	prov := newTestProvider(t)
	url, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if !strings.HasPrefix(url, "/auth/callback?") {
		t.Fatalf("unexpected authURL: %s", url)
	}
	if state == "" || nonce == "" {
		t.Fatal("state and nonce should be generated")
	}
	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if id.Provider != domainauth.ProviderGoogle || id.Identifier != "dev.google@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if got := domainauth.DisplayName(id.Attributes); got != "Dev" {
		t.Fatalf("display name = %q, want Dev", got)
	}
}

func TestProvider_ExchangeRequiresCode(t *testing.T) {
	prov := newTestProvider(t)
	if _, err := prov.Exchange(context.Background(), ports.ExchangeInput{}); !apperrors.IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestProvider_SignIn(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	id, err := prov.SignIn(ctx, " dev@example.com ", "password123")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if id.Identifier != "dev@example.com" || id.AccessToken == "" || id.Provider != domainauth.ProviderEmail {
		t.Fatalf("unexpected identity: %+v", id)
	}

	attrs, err := prov.FetchAttributes(ctx, id.AccessToken)
	if err != nil {
		t.Fatalf("FetchAttributes error: %v", err)
	}
	if attrs.Get(domainauth.AttrName) != "Dev User" {
		t.Fatalf("unexpected attributes: %v", attrs)
	}

	if _, err := prov.SignIn(ctx, "dev@example.com", "wrong"); !apperrors.IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if _, err := prov.SignIn(ctx, "nobody@example.com", "password123"); !apperrors.IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestProvider_SignOutInvalidatesToken(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	id, err := prov.SignIn(ctx, "dev@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if err := prov.SignOut(ctx, id.AccessToken); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if _, err := prov.FetchAttributes(ctx, id.AccessToken); err == nil {
		t.Fatal("expected error after sign out")
	}
}

func TestProvider_SignUpConfirmFlow(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	err := prov.SignUp(ctx, ports.SignUpInput{Email: "new@example.com", Password: "longenough", Name: "New Person"})
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if _, err := prov.SignIn(ctx, "new@example.com", "longenough"); !apperrors.IsAuthentication(err) {
		t.Fatalf("unconfirmed user should not sign in, got %v", err)
	}
	if err := prov.ConfirmSignUp(ctx, "new@example.com", "000000"); !apperrors.IsAuthentication(err) {
		t.Fatalf("expected code mismatch, got %v", err)
	}
	if err := prov.ConfirmSignUp(ctx, "new@example.com", "123456"); err != nil {
		t.Fatalf("ConfirmSignUp error: %v", err)
	}
	if _, err := prov.SignIn(ctx, "new@example.com", "longenough"); err != nil {
		t.Fatalf("SignIn after confirm error: %v", err)
	}
	if err := prov.SignUp(ctx, ports.SignUpInput{Email: "new@example.com", Password: "longenough"}); err == nil {
		t.Fatal("expected duplicate sign up to fail")
	}
}

func TestProvider_SignUpValidation(t *testing.T) {
	prov := newTestProvider(t)
	err := prov.SignUp(context.Background(), ports.SignUpInput{Email: "x@example.com", Password: "short"})
	if !apperrors.IsValidation(err) || apperrors.GetField(err) != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
}
