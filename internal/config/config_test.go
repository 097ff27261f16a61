package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://sp.example.com/saml/metadata", cfg.SPEntityID)
	assert.Equal(t, 180, cfg.ClockSkewSeconds)
	assert.Equal(t, 300, cfg.MaxAuthnLifetimeSeconds)
	assert.Equal(t, "memory", cfg.ReplayStoreDriver)
	assert.Empty(t, cfg.SPIFFESocketPath)
	assert.Equal(t, ":8443", cfg.MTLSListenAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SSOVAL_LISTEN_ADDR", ":9090")
	t.Setenv("SSOVAL_CLOCK_SKEW_SECONDS", "60")
	t.Setenv("SSOVAL_REPLAY_STORE_DRIVER", "sqlite")
	t.Setenv("SSOVAL_SQLITE_PATH", "/var/lib/ssoval/state.db")
	t.Setenv("SSOVAL_CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("SSOVAL_SPIFFE_SOCKET", "unix:///run/spire/agent.sock")
	t.Setenv("SSOVAL_SPIFFE_ALLOWED_IDS", "spiffe://example.org/gateway")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 60, cfg.ClockSkewSeconds)
	assert.Equal(t, "sqlite", cfg.ReplayStoreDriver)
	assert.Equal(t, "/var/lib/ssoval/state.db", cfg.SQLitePath)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "unix:///run/spire/agent.sock", cfg.SPIFFESocketPath)
	assert.Equal(t, []string{"spiffe://example.org/gateway"}, cfg.SPIFFEAllowedIDs)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("SSOVAL_SESSION_TTL_SECONDS", "not-a-number")

	assert.Equal(t, 900, Load().SessionTTLSeconds)
}
