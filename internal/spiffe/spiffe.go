// Package spiffe provides an optional SPIFFE mTLS listener for deployments
// where the validator sits behind a service mesh and callers present
// workload identities. When no workload API socket is configured the server
// falls back to plain HTTP.
package spiffe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
)

// Config selects the workload API endpoint and which peers may connect.
type Config struct {
	// SocketPath is the SPIFFE Workload API endpoint, e.g.
	// unix:///run/spire/sockets/agent.sock. Empty disables mTLS entirely.
	SocketPath string

	// TrustDomain authorizes any member workload when AllowedIDs is empty.
	TrustDomain string

	// AllowedIDs, when non-empty, restricts callers to these exact SPIFFE
	// IDs instead of the whole trust domain.
	AllowedIDs []string
}

func (c Config) Enabled() bool {
	return c.SocketPath != ""
}

// Server wraps an http.Server whose TLS identity comes from the SPIFFE
// Workload API and rotates with it.
type Server struct {
	source     *workloadapi.X509Source
	httpServer *http.Server
}

// NewServer obtains an X.509 SVID from the workload API and builds an mTLS
// server for handler on addr. The returned server owns the SVID source and
// releases it on Shutdown.
func NewServer(ctx context.Context, cfg Config, addr string, handler http.Handler) (*Server, error) {
	source, err := workloadapi.NewX509Source(ctx,
		workloadapi.WithClientOptions(workloadapi.WithAddr(cfg.SocketPath)))
	if err != nil {
		return nil, fmt.Errorf("spiffe: connect workload API at %s: %w", cfg.SocketPath, err)
	}

	authorizer, err := authorizerFor(cfg)
	if err != nil {
		source.Close()
		return nil, err
	}

	return &Server{
		source: source,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			TLSConfig:    tlsconfig.MTLSServerConfig(source, source, authorizer),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}, nil
}

func authorizerFor(cfg Config) (tlsconfig.Authorizer, error) {
	if len(cfg.AllowedIDs) > 0 {
		ids := make([]spiffeid.ID, 0, len(cfg.AllowedIDs))
		for _, raw := range cfg.AllowedIDs {
			id, err := spiffeid.FromString(raw)
			if err != nil {
				return nil, fmt.Errorf("spiffe: invalid allowed id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}
		return tlsconfig.AuthorizeOneOf(ids...), nil
	}

	td, err := spiffeid.TrustDomainFromString(cfg.TrustDomain)
	if err != nil {
		return nil, fmt.Errorf("spiffe: invalid trust domain %q: %w", cfg.TrustDomain, err)
	}
	return tlsconfig.AuthorizeMemberOf(td), nil
}

// ListenAndServe blocks serving mTLS traffic until Shutdown or a fatal
// listener error. Certificates come from the SVID source, so the cert/key
// file arguments stay empty.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServeTLS("", "")
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.source.Close(); err == nil {
		err = cerr
	}
	return err
}
