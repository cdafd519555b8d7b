package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the identity provider backing sign-in.
type AuthMode string

const (
	// AuthModeCognito uses an AWS Cognito user pool (password flows plus hosted UI).
	AuthModeCognito AuthMode = "cognito"
	// AuthModeOAuth uses a generic OAuth/OIDC issuer (redirect flow only).
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses the in-process dev provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "cognito", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: cognito, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"knowlio"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"knowlio"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`

	// Claims maps ID token / userinfo claims onto session attributes.
	Claims ClaimsConfig `envPrefix:"CLAIM_"`
}

// ClaimsConfig holds JMESPath expressions evaluated against the merged claim set.
// Empty expressions fall back to the standard OIDC claim of the same meaning.
type ClaimsConfig struct {
	Identifier string `env:"IDENTIFIER" envDefault:"email || sub"`
	Name       string `env:"NAME"       envDefault:"name"`
	Email      string `env:"EMAIL"      envDefault:"email"`
	GivenName  string `env:"GIVEN_NAME" envDefault:"given_name"`
	FamilyName string `env:"FAMILY_NAME" envDefault:"family_name"`
	// Provider detects federated sign-in; a non-empty result marks the session as "google".
	Provider string `env:"PROVIDER" envDefault:"identities[?providerName=='Google'] | [0].providerName"`
}

// CognitoConfig contains AWS Cognito user pool configuration.
type CognitoConfig struct {
	Region       string `env:"REGION"        envDefault:"us-east-1"`
	UserPoolID   string `env:"USER_POOL_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// Domain is the hosted UI domain, e.g. "https://knowlio.auth.us-east-1.amazoncognito.com".
	Domain      string `env:"DOMAIN"`
	RedirectURL string `env:"REDIRECT_URL" envDefault:"http://localhost:8080/auth/callback"`
	LogoutURL   string `env:"LOGOUT_URL"`
	Scope       string `env:"SCOPE"        envDefault:"openid profile email"`

	// Endpoint overrides the Cognito API endpoint (local emulators).
	Endpoint string `env:"ENDPOINT"`

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
}

// Issuer returns the OIDC issuer URL of the user pool.
func (c CognitoConfig) Issuer() string {
	if c.UserPoolID == "" {
		return ""
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// DevAuthConfig controls mock/dev authentication identities.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Email            string `env:"EMAIL"             envDefault:"dev@example.com"`
	Name             string `env:"NAME"              envDefault:"Dev User"`
	Password         string `env:"PASSWORD"          envDefault:"password123"`
	ConfirmationCode string `env:"CONFIRMATION_CODE" envDefault:"123456"`
	GoogleEmail      string `env:"GOOGLE_EMAIL"      envDefault:"dev.google@example.com"`
	GoogleGivenName  string `env:"GOOGLE_GIVEN_NAME" envDefault:"Dev"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"mock"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Cognito configuration (used when Mode=cognito).
	Cognito CognitoConfig `envPrefix:"COGNITO_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
