// Package trustengine implements ssocore's signature-verification
// collaborators on top of goxmldsig and etree: it locates the referenced
// element in the raw document and checks it against configured trust
// material, instead of re-marshaling a decoded struct.
package trustengine

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"regexp"
	"sync"

	"github.com/saml2validator/ssoval/internal/saml"
)

// CertificateSource resolves the trusted signing certificates for a peer
// entity. Implementations are consulted once per Build call and must be
// safe for concurrent use.
type CertificateSource interface {
	CertificatesFor(entityID string) ([]*x509.Certificate, error)
}

// StaticCertificateSource holds a fixed signing-certificate set per entity
// id, useful for tests and single-IdP deployments configured by hand.
type StaticCertificateSource map[string][]*x509.Certificate

func (s StaticCertificateSource) CertificatesFor(entityID string) ([]*x509.Certificate, error) {
	certs, ok := s[entityID]
	if !ok || len(certs) == 0 {
		return nil, fmt.Errorf("trustengine: no certificates configured for entity %q", entityID)
	}
	return certs, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseX509Certificate decodes the base64 DER content of a bare
// <ds:X509Certificate> element (no PEM armor).
func ParseX509Certificate(raw string) (*x509.Certificate, error) {
	cleaned := whitespace.ReplaceAllString(raw, "")
	if cleaned == "" {
		return nil, fmt.Errorf("trustengine: empty certificate")
	}
	der, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("trustengine: decode certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("trustengine: parse certificate: %w", err)
	}
	return cert, nil
}

// MetadataCertificateSource resolves signing certificates from a cached set
// of IdP EntityDescriptors, refreshed by whatever polls SAML metadata.
type MetadataCertificateSource struct {
	mu         sync.RWMutex
	descriptor map[string]*saml.EntityDescriptor
}

func NewMetadataCertificateSource() *MetadataCertificateSource {
	return &MetadataCertificateSource{descriptor: make(map[string]*saml.EntityDescriptor)}
}

// Set installs or replaces the cached descriptor for an IdP entity id.
func (m *MetadataCertificateSource) Set(ed *saml.EntityDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.descriptor[ed.EntityID] = ed
}

func (m *MetadataCertificateSource) CertificatesFor(entityID string) ([]*x509.Certificate, error) {
	m.mu.RLock()
	ed, ok := m.descriptor[entityID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("trustengine: no metadata cached for entity %q", entityID)
	}

	if ed.IDPSSODescriptor == nil {
		return nil, fmt.Errorf("trustengine: entity %q has no IDPSSODescriptor", entityID)
	}

	var certs []*x509.Certificate
	for _, kd := range ed.IDPSSODescriptor.KeyDescriptors {
		if kd.Use != "" && kd.Use != "signing" {
			continue
		}
		if kd.KeyInfo.X509Data == nil || kd.KeyInfo.X509Data.X509Certificate == "" {
			continue
		}
		cert, err := ParseX509Certificate(kd.KeyInfo.X509Data.X509Certificate)
		if err != nil {
			continue
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("trustengine: entity %q has no usable signing certificates", entityID)
	}
	return certs, nil
}
