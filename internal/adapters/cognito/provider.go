// Package cognito implements the identity provider port on an AWS Cognito
// user pool: password sign-in, sign-up and confirmation through the user pool
// API, and redirect sign-in (hosted UI, Google federation) through OIDC.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// API is the subset of the Cognito user pool client used by Provider.
type API interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(
		ctx context.Context,
		in *cip.ConfirmSignUpInput,
		optFns ...func(*cip.Options),
	) (*cip.ConfirmSignUpOutput, error)
	GetUser(ctx context.Context, in *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	GlobalSignOut(
		ctx context.Context,
		in *cip.GlobalSignOutInput,
		optFns ...func(*cip.Options),
	) (*cip.GlobalSignOutOutput, error)
}

// Options configures a Provider.
type Options struct {
	Client       API
	ClientID     string
	ClientSecret string
	// Redirect handles hosted UI sign-in; nil disables redirect flows.
	Redirect ports.RedirectProvider
	Logger   *slog.Logger
	Now      func() time.Time
}

// Provider is a Cognito-backed ports.IdentityProvider.
type Provider struct {
	client       API
	clientID     string
	clientSecret string
	redirect     ports.RedirectProvider
	logger       *slog.Logger
	now          func() time.Time
}

// NewProvider validates opts and builds a Provider.
func NewProvider(opts Options) (*Provider, error) {
	if opts.Client == nil {
		return nil, errors.New("cognito client is required")
	}
	if opts.ClientID == "" {
		return nil, errors.New("cognito client ID is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		client:       opts.Client,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirect:     opts.Redirect,
		logger:       logger.With("component", "cognito"),
		now:          now,
	}, nil
}

func (p *Provider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if p.redirect == nil {
		return "", "", "", ports.ErrUnsupported
	}
	return p.redirect.Begin(ctx, in)
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if p.redirect == nil {
		return domainauth.Identity{}, ports.ErrUnsupported
	}
	return p.redirect.Exchange(ctx, in)
}

// SignIn runs the USER_PASSWORD_AUTH flow. Attributes are loaded separately.
func (p *Provider) SignIn(ctx context.Context, username, password string) (domainauth.Identity, error) {
	username = normalizeUsername(username)
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if hash := p.secretHash(username); hash != "" {
		params["SECRET_HASH"] = hash
	}

	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(p.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return domainauth.Identity{}, mapError(err, "sign in")
	}
	if out.ChallengeName != "" {
		// MFA and forced password change are handled on the hosted UI.
		return domainauth.Identity{}, challengeError(out.ChallengeName)
	}
	res := out.AuthenticationResult
	if res == nil || aws.ToString(res.AccessToken) == "" {
		return domainauth.Identity{}, errors.New("cognito returned no authentication result")
	}

	return domainauth.Identity{
		Identifier:  username,
		Attributes:  domainauth.Attributes{domainauth.AttrEmail: username},
		Provider:    domainauth.ProviderEmail,
		AccessToken: aws.ToString(res.AccessToken),
		ExpiresAt:   p.now().Add(time.Duration(res.ExpiresIn) * time.Second),
	}, nil
}

func (p *Provider) SignUp(ctx context.Context, in ports.SignUpInput) error {
	username := normalizeUsername(in.Email)
	attrs := []types.AttributeType{
		{Name: aws.String(domainauth.AttrEmail), Value: aws.String(username)},
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String(domainauth.AttrName), Value: aws.String(name)})
	}

	_, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId:       aws.String(p.clientID),
		Username:       aws.String(username),
		Password:       aws.String(in.Password),
		SecretHash:     p.secretHashPtr(username),
		UserAttributes: attrs,
	})
	if err != nil {
		return mapError(err, "sign up")
	}
	return nil
}

func (p *Provider) ConfirmSignUp(ctx context.Context, username, code string) error {
	username = normalizeUsername(username)
	_, err := p.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(strings.TrimSpace(code)),
		SecretHash:       p.secretHashPtr(username),
	})
	if err != nil {
		return mapError(err, "confirm sign up")
	}
	return nil
}

// SignOut revokes every token issued to the user.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if _, err := p.client.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)}); err != nil {
		return mapError(err, "sign out")
	}
	return nil
}

func (p *Provider) FetchAttributes(ctx context.Context, accessToken string) (domainauth.Attributes, error) {
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}
	out, err := p.client.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return nil, mapError(err, "get user")
	}
	attrs := make(domainauth.Attributes, len(out.UserAttributes))
	for _, a := range out.UserAttributes {
		if name := aws.ToString(a.Name); name != "" {
			attrs[name] = aws.ToString(a.Value)
		}
	}
	return attrs, nil
}

// secretHash computes Base64(HMAC_SHA256(clientSecret, username + clientID)).
func (p *Provider) secretHash(username string) string {
	if p.clientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(p.clientSecret))
	mac.Write([]byte(username + p.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *Provider) secretHashPtr(username string) *string {
	if h := p.secretHash(username); h != "" {
		return aws.String(h)
	}
	return nil
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func challengeError(name types.ChallengeNameType) error {
	return fmt.Errorf("%w: challenge %s", errChallenge, name)
}

var _ ports.IdentityProvider = (*Provider)(nil)
