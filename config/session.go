package config

import "time"

const devSessionSecret = "knowlio-dev-session-secret-change-me"

// SessionConfig controls the session store and the client key cookie.
type SessionConfig struct {
	// Secret signs the client key cookie (HS256).
	Secret string `env:"SECRET" envDefault:"knowlio-dev-session-secret-change-me"`

	// TTL bounds provider-backed sessions whose provider reports no expiry.
	TTL time.Duration `env:"TTL" envDefault:"8h"`

	// OverrideTTL bounds simulated sessions written by the test-auth utility.
	OverrideTTL time.Duration `env:"OVERRIDE_TTL" envDefault:"1h"`

	// ClientTTL is the lifetime of the client key cookie.
	ClientTTL time.Duration `env:"CLIENT_TTL" envDefault:"720h"`
}

// UsesDevSecret reports whether the built-in development secret is in use.
func (s *SessionConfig) UsesDevSecret() bool {
	return s.Secret == devSessionSecret
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.Secret == "" {
		s.Secret = devSessionSecret
	}
	if s.TTL < time.Minute {
		s.TTL = time.Minute
	}
	if s.OverrideTTL < time.Minute {
		s.OverrideTTL = time.Minute
	}
	if s.ClientTTL < time.Hour {
		s.ClientTTL = time.Hour
	}
}

// LiveConfig controls live views (SSE) and the cross-instance event relay.
type LiveConfig struct {
	// RecheckDelay is the delay of the single extra session re-check after a redirect sign-in.
	RecheckDelay time.Duration `env:"RECHECK_DELAY" envDefault:"2s"`

	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration `env:"HEARTBEAT" envDefault:"25s"`

	// RelayEnabled publishes local auth events to Redis and replays remote ones.
	RelayEnabled bool `env:"RELAY_ENABLED" envDefault:"true"`

	// RelayChannel is the Redis pub/sub channel used by the relay.
	RelayChannel string `env:"RELAY_CHANNEL" envDefault:"knowlio:auth"`
}

// Sanitize applies guardrails to live view configuration values.
func (l *LiveConfig) Sanitize() {
	if l.RecheckDelay < 0 {
		l.RecheckDelay = 0
	}
	if l.RecheckDelay > time.Minute {
		l.RecheckDelay = time.Minute
	}
	if l.Heartbeat < time.Second {
		l.Heartbeat = time.Second
	}
	if l.RelayChannel == "" {
		l.RelayChannel = "knowlio:auth"
	}
}
