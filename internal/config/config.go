// Package config loads the server's environment-driven settings. The
// settings are flat enough that getEnv-style helpers beat a config
// library here.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the settings the server binary needs to construct an
// ssocore.ValidationConfig and start listening. It never reaches ssocore
// directly — that wiring happens in the binary's bootstrap, keeping
// environment variables out of the validator core itself.
type Config struct {
	ListenAddr string

	SPEntityID string
	ACSURL     string

	ClockSkewSeconds        int
	MaxAuthnLifetimeSeconds int
	SessionTTLSeconds       int

	CORSOrigins []string

	ReplayStoreDriver string // "memory" or "sqlite"
	SQLitePath        string

	IdPMetadataPath string
	IdPEntityID     string
	IdPSSOURL       string

	// SPIFFE mTLS listener settings; SPIFFESocketPath empty means the
	// server listens over plain HTTP only.
	SPIFFESocketPath  string
	SPIFFETrustDomain string
	SPIFFEAllowedIDs  []string
	MTLSListenAddr    string
}

// Load reads configuration from SSOVAL_-prefixed environment variables,
// falling back to localhost-friendly defaults.
func Load() *Config {
	return &Config{
		ListenAddr:              getEnv("SSOVAL_LISTEN_ADDR", ":8080"),
		SPEntityID:              getEnv("SSOVAL_SP_ENTITY_ID", "https://sp.example.com/saml/metadata"),
		ACSURL:                  getEnv("SSOVAL_ACS_URL", "https://sp.example.com/saml/acs"),
		ClockSkewSeconds:        getEnvInt("SSOVAL_CLOCK_SKEW_SECONDS", 180),
		MaxAuthnLifetimeSeconds: getEnvInt("SSOVAL_MAX_AUTHN_LIFETIME_SECONDS", 300),
		SessionTTLSeconds:       getEnvInt("SSOVAL_SESSION_TTL_SECONDS", 900),
		CORSOrigins:             getEnvList("SSOVAL_CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		ReplayStoreDriver:       getEnv("SSOVAL_REPLAY_STORE_DRIVER", "memory"),
		SQLitePath:              getEnv("SSOVAL_SQLITE_PATH", "ssoval.db"),
		IdPMetadataPath:         getEnv("SSOVAL_IDP_METADATA_PATH", ""),
		IdPEntityID:             getEnv("SSOVAL_IDP_ENTITY_ID", ""),
		IdPSSOURL:               getEnv("SSOVAL_IDP_SSO_URL", ""),
		SPIFFESocketPath:        getEnv("SSOVAL_SPIFFE_SOCKET", ""),
		SPIFFETrustDomain:       getEnv("SSOVAL_SPIFFE_TRUST_DOMAIN", "example.org"),
		SPIFFEAllowedIDs:        getEnvList("SSOVAL_SPIFFE_ALLOWED_IDS", nil),
		MTLSListenAddr:          getEnv("SSOVAL_MTLS_LISTEN_ADDR", ":8443"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.Split(value, ",")
}
