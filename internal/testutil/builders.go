// Package testutil provides testing utilities and helpers for the Knowlio web app.
package testutil

import (
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/domain/model"
)

// SessionBuilder provides a fluent interface for building sessions in tests.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a SessionBuilder for jane@example.com signed in with email.
func NewSession(key string) *SessionBuilder {
	return &SessionBuilder{sess: domainauth.Session{
		ID:         key,
		Identifier: "jane@example.com",
		Attributes: domainauth.Attributes{},
		Provider:   domainauth.ProviderEmail,
		ExpiresAt:  time.Now().Add(time.Hour),
	}}
}

// WithIdentifier sets the identifier.
func (b *SessionBuilder) WithIdentifier(id string) *SessionBuilder {
	b.sess.Identifier = id
	return b
}

// WithAttr sets a single display attribute.
func (b *SessionBuilder) WithAttr(key, value string) *SessionBuilder {
	if b.sess.Attributes == nil {
		b.sess.Attributes = domainauth.Attributes{}
	}
	b.sess.Attributes[key] = value
	return b
}

// WithProvider sets how the session was established.
func (b *SessionBuilder) WithProvider(p domainauth.Provider) *SessionBuilder {
	b.sess.Provider = p
	return b
}

// WithAccessToken sets the provider access token.
func (b *SessionBuilder) WithAccessToken(tok string) *SessionBuilder {
	b.sess.AccessToken = tok
	return b
}

// WithExpiresAt sets the expiry.
func (b *SessionBuilder) WithExpiresAt(t time.Time) *SessionBuilder {
	b.sess.ExpiresAt = t
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session {
	out := b.sess
	out.Attributes = b.sess.Attributes.Clone()
	return out
}

// ContactRequestBuilder builds contact form submissions.
type ContactRequestBuilder struct {
	req model.CreateContactMessageRequest
}

// NewContactRequest returns a builder preloaded with a valid submission.
func NewContactRequest() *ContactRequestBuilder {
	return &ContactRequestBuilder{req: model.CreateContactMessageRequest{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Licensing",
		Message: "I would like to license the economic report.",
	}}
}

// WithEmail sets the email field.
func (b *ContactRequestBuilder) WithEmail(email string) *ContactRequestBuilder {
	b.req.Email = email
	return b
}

// WithName sets the name field.
func (b *ContactRequestBuilder) WithName(name string) *ContactRequestBuilder {
	b.req.Name = name
	return b
}

// Build returns a pointer to a copy of the request.
func (b *ContactRequestBuilder) Build() *model.CreateContactMessageRequest {
	out := b.req
	return &out
}
