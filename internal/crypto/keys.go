// Package crypto holds the service's own key material: a single RSA key
// pair used both to sign session tokens (RS256) and to unwrap XML-Enc
// encrypted keys addressed to this service provider. The public half is
// published as a JWKS so relying parties can verify issued tokens.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// KeySet owns the service key pair. Keys are generated once at startup and
// never rotated in-process; restart to rotate.
type KeySet struct {
	rsaKey   *rsa.PrivateKey
	rsaKeyID string
}

// NewKeySet generates a fresh 2048-bit RSA key pair.
func NewKeySet() (*KeySet, error) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}
	return &KeySet{
		rsaKey:   rsaKey,
		rsaKeyID: generateKeyID("rsa"),
	}, nil
}

// NewKeySetFromKey wraps an externally provisioned private key, e.g. one
// loaded from disk so the key survives restarts.
func NewKeySetFromKey(key *rsa.PrivateKey) *KeySet {
	return &KeySet{rsaKey: key, rsaKeyID: generateKeyID("rsa")}
}

func generateKeyID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%s-%x", prefix, b)
}

func (ks *KeySet) RSAPrivateKey() *rsa.PrivateKey {
	return ks.rsaKey
}

func (ks *KeySet) RSAPublicKey() *rsa.PublicKey {
	return &ks.rsaKey.PublicKey
}

func (ks *KeySet) RSAKeyID() string {
	return ks.rsaKeyID
}

// JWK is the subset of RFC 7517 this service publishes.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`

	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWKS returns the public key in JWKS format for the jwks.json
// endpoint.
func (ks *KeySet) PublicJWKS() JWKS {
	return JWKS{Keys: []JWK{ks.rsaPublicJWK()}}
}

func (ks *KeySet) rsaPublicJWK() JWK {
	pub := &ks.rsaKey.PublicKey
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: ks.rsaKeyID,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// GetJWKByID returns the published JWK matching kid, if any.
func (ks *KeySet) GetJWKByID(kid string) (JWK, bool) {
	if kid == ks.rsaKeyID {
		return ks.rsaPublicJWK(), true
	}
	return JWK{}, false
}

// Thumbprint calculates the RFC 7638 JWK thumbprint.
func (jwk JWK) Thumbprint() string {
	if jwk.Kty != "RSA" {
		return ""
	}
	canonical := map[string]string{
		"e":   jwk.E,
		"kty": jwk.Kty,
		"n":   jwk.N,
	}
	data, _ := json.Marshal(canonical)
	hash := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
