package auth

// Package auth contains domain-level types for authentication, sessions and
// the auth lifecycle events shared by every view. It is pure and free of
// framework/adapter concerns.

import (
	"maps"
	"strings"
	"time"
)

// Well-known attribute names returned by identity providers.
const (
	AttrName       = "name"
	AttrEmail      = "email"
	AttrGivenName  = "given_name"
	AttrFamilyName = "family_name"
	AttrSubject    = "sub"
)

// Attributes are display attributes reported by the identity provider.
// Any key may be missing; a nil map is a valid empty set.
type Attributes map[string]string

// Get returns the trimmed value of key, or "" when absent.
func (a Attributes) Get(key string) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a[key])
}

// Clone returns an independent copy. Clone of nil is nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

// Merge returns a copy of a overlaid with the non-empty values of other.
func (a Attributes) Merge(other Attributes) Attributes {
	out := make(Attributes, len(a)+len(other))
	maps.Copy(out, a)
	for k, v := range other {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Provider identifies how a session was established.
type Provider string

const (
	ProviderEmail     Provider = "email"
	ProviderGoogle    Provider = "google"
	ProviderSimulated Provider = "simulated"
)

// Label is the human readable form used on the dashboard.
func (p Provider) Label() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderSimulated:
		return "Simulation"
	default:
		return "Email"
	}
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Identifier  string // stable identifier (email or provider subject)
	Attributes  Attributes
	Provider    Provider
	AccessToken string    // provider access token, used for attribute fetch and sign-out
	ExpiresAt   time.Time // absolute expiry from IdP token; zero when unknown
}

// Session is the server-side record we persist for an authenticated client.
// Presence means "logged in", even when Attributes is empty.
type Session struct {
	ID          string     `json:"id"`
	Identifier  string     `json:"identifier"`
	Attributes  Attributes `json:"attributes,omitempty"`
	Provider    Provider   `json:"provider"`
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Email returns the email attribute, falling back to an email-shaped identifier.
func (s Session) Email() string {
	if e := s.Attributes.Get(AttrEmail); e != "" {
		return e
	}
	if strings.Contains(s.Identifier, "@") {
		return s.Identifier
	}
	return ""
}
