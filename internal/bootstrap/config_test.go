package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/knowlio-web/config"
)

func TestGetEnabledServices(t *testing.T) {
	tests := []struct {
		name     string
		services string
		want     []string
	}{
		{name: "defaults", services: "http,relay", want: []string{"http", "relay"}},
		{name: "order follows valid modes", services: "relay, http", want: []string{"http", "relay"}},
		{name: "http only", services: "http", want: []string{"http"}},
		{name: "invalid", services: "http,reaper", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetEnabledServices(&config.AppConfig{Services: tt.services}))
		})
	}
	assert.Empty(t, GetEnabledServices(nil))
}

func TestValidateServiceConfig(t *testing.T) {
	require.NoError(t, ValidateServiceConfig(&config.AppConfig{Services: "http"}))
	require.Error(t, ValidateServiceConfig(&config.AppConfig{Services: "bogus"}))
	require.Error(t, ValidateServiceConfig(nil))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "mock")
	t.Setenv("SERVICES", "http")
	t.Setenv("LIVE_RELAY_CHANNEL", "knowlio:auth")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.AuthModeMock, cfg.Auth.Mode)
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsRelayEnabled())
	assert.Equal(t, "knowlio:auth", cfg.Live.RelayChannel)
}

func TestLoadConfigRejectsUnknownAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "saml")
	_, err := LoadConfig()
	require.Error(t, err)
}
