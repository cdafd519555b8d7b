package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/knowlio-web/config"
	"github.com/target/knowlio-web/internal/adapters/cognito"
	"github.com/target/knowlio-web/internal/adapters/devauth"
	"github.com/target/knowlio-web/internal/adapters/oidc"
	"github.com/target/knowlio-web/internal/ports"
)

// AuthConfig contains configuration for the identity provider.
type AuthConfig struct {
	Auth    config.AuthConfig
	Session config.SessionConfig
	Logger  *slog.Logger
}

// BuildIdentityProvider creates the identity provider for the configured auth mode.
func BuildIdentityProvider(ctx context.Context, cfg AuthConfig) (ports.IdentityProvider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock, "":
		logger.Warn("using in-process dev identity provider", "email", cfg.Auth.DevAuth.Email)
		return buildDevAuthProvider(cfg)

	case config.AuthModeOAuth:
		return buildOAuthProvider(ctx, cfg.Auth.OAuth)

	case config.AuthModeCognito:
		return buildCognitoProvider(ctx, cfg.Auth.Cognito, logger)

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildDevAuthProvider(cfg AuthConfig) (ports.IdentityProvider, error) {
	prov, err := devauth.NewProvider(devauth.Config{
		Email:            cfg.Auth.DevAuth.Email,
		Name:             cfg.Auth.DevAuth.Name,
		Password:         cfg.Auth.DevAuth.Password,
		ConfirmationCode: cfg.Auth.DevAuth.ConfirmationCode,
		GoogleEmail:      cfg.Auth.DevAuth.GoogleEmail,
		GoogleGivenName:  cfg.Auth.DevAuth.GoogleGivenName,
		SessionDuration:  cfg.Session.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	return prov, nil
}

func buildOAuthProvider(ctx context.Context, cfg config.OAuthConfig) (ports.IdentityProvider, error) {
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scope:        cfg.Scope,
		DiscoveryURL: cfg.DiscoveryURL,
		LogoutURL:    cfg.LogoutURL,
		Claims:       claimExpressions(cfg.Claims),
	})
	if err != nil {
		return nil, fmt.Errorf("create oauth provider: %w", err)
	}
	return prov, nil
}

func claimExpressions(c config.ClaimsConfig) oidc.ClaimExpressions {
	return oidc.ClaimExpressions{
		Identifier: c.Identifier,
		Name:       c.Name,
		Email:      c.Email,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
		Provider:   c.Provider,
	}
}

func buildCognitoProvider(ctx context.Context, cfg config.CognitoConfig, logger *slog.Logger) (ports.IdentityProvider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("cognito client ID is required")
	}

	client, err := cognito.NewClient(ctx, cognito.ClientConfig{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create cognito client: %w", err)
	}

	// Hosted UI sign-in needs the pool issuer; password flows work without it.
	var redirect ports.RedirectProvider
	if issuer := cfg.Issuer(); issuer != "" {
		hosted, hostedErr := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scope:        cfg.Scope,
			DiscoveryURL: issuer,
			LogoutURL:    cfg.LogoutURL,
		})
		if hostedErr != nil {
			logger.Warn("cognito hosted sign-in disabled", "issuer", issuer, "error", hostedErr)
		} else {
			redirect = hosted
		}
	} else {
		logger.Warn("cognito hosted sign-in disabled: user pool ID not configured")
	}

	prov, err := cognito.NewProvider(cognito.Options{
		Client:       client,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Redirect:     redirect,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create cognito provider: %w", err)
	}
	return prov, nil
}
