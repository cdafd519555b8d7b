package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity provider configuration
//   - session.go: Session store and live view configuration
//   - database.go: Database and cache configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, caching, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Session and live view configuration
	Session SessionConfig `envPrefix:"SESSION_"`
	Live    LiveConfig    `envPrefix:"LIVE_"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Metrics configuration
	Observability ObservabilityConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http,relay"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.Live.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()

	// The relay fans events through Redis; without it there is nothing to relay.
	if !c.Redis.Enabled {
		c.Live.RelayEnabled = false
	}
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsRelayEnabled returns true if the cross-instance event relay should run.
func (c *AppConfig) IsRelayEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeRelay] && c.Live.RelayEnabled
}
