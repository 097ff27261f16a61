// Package session mints a signed session token from a validated ssocore
// credential, using the RS256 JWTService backed by the server's own key
// set.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/saml2validator/ssoval/internal/crypto"
	"github.com/saml2validator/ssoval/internal/ssocore"
)

// Issuer mints session tokens for successfully validated SSO credentials.
type Issuer struct {
	jwt      *crypto.JWTService
	audience string
	ttl      time.Duration
}

// NewIssuer builds an Issuer that signs tokens as issuer, scoped to
// audience, valid for ttl.
func NewIssuer(keySet *crypto.KeySet, issuer string, audience string, ttl time.Duration) *Issuer {
	return &Issuer{
		jwt:      crypto.NewJWTService(keySet, issuer),
		audience: audience,
		ttl:      ttl,
	}
}

// Issue mints a session token carrying the credential's subject, issuing
// IdP, session index, and authentication context as custom claims.
func (i *Issuer) Issue(cred *ssocore.Credential) (string, error) {
	if cred.NameID.Value == "" {
		return "", fmt.Errorf("session: credential has no subject identifier")
	}

	custom := map[string]interface{}{
		"idp": cred.IssuerEntityID,
	}
	if cred.SessionIndex != "" {
		custom["sid"] = cred.SessionIndex
	}
	if len(cred.AuthnContextClassRefs) > 0 {
		custom["amr"] = cred.AuthnContextClassRefs
	}
	if cred.NameID.Format != "" {
		custom["name_id_format"] = cred.NameID.Format
	}
	for name, values := range cred.Attributes {
		custom["attr_"+sanitizeClaimName(name)] = values
	}

	return i.jwt.CreateAccessToken(cred.NameID.Value, i.audience, "sso:session", i.ttl, custom)
}

// sanitizeClaimName maps a SAML attribute name onto a token-safe claim
// suffix; SAML attribute names are frequently URNs or URLs.
func sanitizeClaimName(name string) string {
	r := strings.NewReplacer(":", "_", "/", "_", ".", "_", " ", "_")
	return r.Replace(name)
}
