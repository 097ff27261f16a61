// Package bootstrap wires the configuration, key material, and collaborator
// implementations the server needs into a single ssocore.ValidationConfig,
// keeping environment access and backend selection out of both the
// validator core and main.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/saml2validator/ssoval/internal/config"
	"github.com/saml2validator/ssoval/internal/crypto"
	"github.com/saml2validator/ssoval/internal/logout"
	"github.com/saml2validator/ssoval/internal/saml"
	"github.com/saml2validator/ssoval/internal/session"
	"github.com/saml2validator/ssoval/internal/ssocore"
	"github.com/saml2validator/ssoval/internal/store"
	"github.com/saml2validator/ssoval/internal/store/sqlite"
	"github.com/saml2validator/ssoval/internal/trace"
	"github.com/saml2validator/ssoval/internal/trustengine"
)

// Result holds every initialized dependency the server binary needs, plus
// an optional Close for whichever replay store backend was selected.
type Result struct {
	Config           *config.Config
	KeySet           *crypto.KeySet
	ValidationConfig *ssocore.ValidationConfig
	SessionIssuer    *session.Issuer
	SentRecorder     ssocore.SentMessageRecorder
	LogoutRegistry   *logout.Registry
	TraceHub         *trace.Hub
	Close            func() error
}

// Bootstrap loads configuration and assembles every collaborator
// ssocore.Validate needs.
func Bootstrap() (*Result, error) {
	cfg := config.Load()

	keySet, err := crypto.NewKeySet()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: initialize key set: %w", err)
	}
	log.Println("cryptographic keys initialized")

	certSource := trustengine.NewMetadataCertificateSource()
	if cfg.IdPMetadataPath != "" {
		raw, err := os.ReadFile(cfg.IdPMetadataPath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: read idp metadata: %w", err)
		}
		ed, err := saml.ParseEntityDescriptor(raw)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: parse idp metadata: %w", err)
		}
		certSource.Set(ed)
		log.Printf("loaded idp metadata for %s", ed.EntityID)
	}

	var replayCache ssocore.ReplayCache
	var sentMessages ssocore.SentMessageStore
	var sentRecorder ssocore.SentMessageRecorder
	closeFn := func() error { return nil }

	switch cfg.ReplayStoreDriver {
	case "sqlite":
		sqliteStore, err := sqlite.Open(context.Background(), cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: open sqlite store: %w", err)
		}
		replayCache = sqliteStore
		sentMessages = sqliteStore
		sentRecorder = sqliteStore
		closeFn = sqliteStore.Close
		log.Printf("replay cache backed by sqlite at %s", cfg.SQLitePath)
	default:
		memStore := store.NewMemorySentMessageStore()
		replayCache = store.NewMemoryReplayCache()
		sentMessages = memStore
		sentRecorder = memStore
		log.Println("replay cache backed by memory (not durable across restarts)")
	}

	logoutRegistry := logout.NewRegistry()

	validationConfig := &ssocore.ValidationConfig{
		WantsResponsesSigned:    true,
		WantsAssertionsSigned:   true,
		MaxAuthnLifetimeSeconds: cfg.MaxAuthnLifetimeSeconds,
		ClockSkewSeconds:        cfg.ClockSkewSeconds,
		SelfEntityID:            cfg.SPEntityID,
		Endpoint: ssocore.Endpoint{
			Location: cfg.ACSURL,
			Binding:  saml.BindingHTTPPost,
		},
		Peer: ssocore.PeerEntity{
			EntityID: cfg.IdPEntityID,
		},
		TrustEngineProvider: trustengine.NewProvider(certSource),
		Decrypter:           trustengine.NewDecrypter(keySet.RSAPrivateKey()),
		ReplayCache:         replayCache,
		SentMessages:        sentMessages,
		LogoutHandler:       logoutRegistry,
		Scope:               "acs",
	}

	issuer := session.NewIssuer(keySet, cfg.SPEntityID, cfg.SPEntityID, time.Duration(cfg.SessionTTLSeconds)*time.Second)

	return &Result{
		Config:           cfg,
		KeySet:           keySet,
		ValidationConfig: validationConfig,
		SessionIssuer:    issuer,
		SentRecorder:     sentRecorder,
		LogoutRegistry:   logoutRegistry,
		TraceHub:         trace.NewHub(),
		Close:            closeFn,
	}, nil
}
