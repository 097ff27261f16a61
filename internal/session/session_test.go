package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saml2validator/ssoval/internal/crypto"
	"github.com/saml2validator/ssoval/internal/ssocore"
)

func testKeySet(t *testing.T) *crypto.KeySet {
	t.Helper()
	ks, err := crypto.NewKeySet()
	require.NoError(t, err)
	return ks
}

func testCredential() *ssocore.Credential {
	return &ssocore.Credential{
		NameID: ssocore.NameIdentifier{
			Value:  "user@example.com",
			Format: "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress",
		},
		IssuerEntityID:        "https://idp.example.org/saml/metadata",
		SessionIndex:          "sess-1",
		AuthnContextClassRefs: []string{"urn:oasis:names:tc:SAML:2.0:ac:classes:PasswordProtectedTransport"},
		Attributes: map[string][]string{
			"displayName": {"Test User"},
			"urn:oid:1.3.6.1.4.1.5923.1.1.1.1": {"member", "staff"},
		},
	}
}

func TestIssueProducesVerifiableToken(t *testing.T) {
	ks := testKeySet(t)
	issuer := NewIssuer(ks, "https://sp.example.com", "sp-api", time.Hour)

	token, err := issuer.Issue(testCredential())
	require.NoError(t, err)

	claims, err := crypto.NewJWTService(ks, "https://sp.example.com").ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", claims["sub"])
	assert.Equal(t, "https://sp.example.com", claims["iss"])
	assert.Equal(t, "sp-api", claims["aud"])
	assert.Equal(t, "sso:session", claims["scope"])
	assert.Equal(t, "https://idp.example.org/saml/metadata", claims["idp"])
	assert.Equal(t, "sess-1", claims["sid"])
	assert.Equal(t, "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress", claims["name_id_format"])
}

func TestIssueFlattensAttributeNames(t *testing.T) {
	ks := testKeySet(t)
	issuer := NewIssuer(ks, "https://sp.example.com", "sp-api", time.Hour)

	token, err := issuer.Issue(testCredential())
	require.NoError(t, err)

	claims, err := crypto.NewJWTService(ks, "https://sp.example.com").ValidateToken(token)
	require.NoError(t, err)

	assert.Contains(t, claims, "attr_displayName")
	// URN-style attribute names become underscore-separated claim suffixes.
	assert.Contains(t, claims, "attr_urn_oid_1_3_6_1_4_1_5923_1_1_1_1")
}

func TestIssueOmitsEmptyOptionalClaims(t *testing.T) {
	ks := testKeySet(t)
	issuer := NewIssuer(ks, "https://sp.example.com", "sp-api", time.Hour)

	cred := &ssocore.Credential{NameID: ssocore.NameIdentifier{Value: "user@example.com"}}
	token, err := issuer.Issue(cred)
	require.NoError(t, err)

	claims, err := crypto.NewJWTService(ks, "https://sp.example.com").ValidateToken(token)
	require.NoError(t, err)

	assert.NotContains(t, claims, "sid")
	assert.NotContains(t, claims, "amr")
	assert.NotContains(t, claims, "name_id_format")
}

func TestIssueRejectsMissingSubject(t *testing.T) {
	issuer := NewIssuer(testKeySet(t), "https://sp.example.com", "sp-api", time.Hour)

	_, err := issuer.Issue(&ssocore.Credential{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subject identifier")
}

func TestIssuedTokenRejectedByForeignKeySet(t *testing.T) {
	issuer := NewIssuer(testKeySet(t), "https://sp.example.com", "sp-api", time.Hour)

	token, err := issuer.Issue(testCredential())
	require.NoError(t, err)

	other := crypto.NewJWTService(testKeySet(t), "https://sp.example.com")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}
