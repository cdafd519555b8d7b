// Package jwtcookie signs and verifies the opaque client key carried in the
// browser's "sid" cookie. The key is the subject of an HS256 JWT.
package jwtcookie

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "knowlio-web"

// ErrInvalidToken is returned for tokens that fail signature, expiry or shape checks.
var ErrInvalidToken = errors.New("invalid client key token")

// Codec issues and parses client key tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a Codec. secret must be non-empty; ttl <= 0 means 30 days.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("jwtcookie: secret is required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// NewKey returns a fresh random client key.
func NewKey() string { return uuid.NewString() }

// Issue signs key into a token that expires after the codec TTL.
func (c *Codec) Issue(key string) (string, error) {
	if key == "" {
		return "", errors.New("jwtcookie: key is required")
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   key,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign client key: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns the client key it carries.
func (c *Codec) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
