package saml

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	assert.True(t, strings.HasPrefix(id, "_"))
	assert.Len(t, id, 33) // "_" plus 32 hex digits
	assert.NotEqual(t, id, GenerateID())
}

func TestTimeFormatting(t *testing.T) {
	now, err := time.Parse(SAMLTimeFormat, TimeNow())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), now, 2*time.Second)

	later, err := time.Parse(SAMLTimeFormat, TimeIn(time.Hour))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), later, 2*time.Second)
}

func TestNewAuthnRequestDefaults(t *testing.T) {
	req := NewAuthnRequest(
		"https://sp.example.com/saml/metadata",
		"https://idp.example.org/saml/sso",
		"https://sp.example.com/saml/acs",
	)

	assert.True(t, strings.HasPrefix(req.ID, "_"))
	assert.Equal(t, "2.0", req.Version)
	assert.Equal(t, BindingHTTPPost, req.ProtocolBinding)
	assert.Equal(t, "https://sp.example.com/saml/acs", req.AssertionConsumerServiceURL)
	require.NotNil(t, req.Issuer)
	assert.Equal(t, "https://sp.example.com/saml/metadata", req.Issuer.Value)
	require.NotNil(t, req.NameIDPolicy)
	assert.True(t, req.NameIDPolicy.AllowCreate)
}

func TestNewResponseStatus(t *testing.T) {
	ok := NewResponse("https://idp.example.org/saml/metadata", "https://sp.example.com/saml/acs", "_req-1", true)
	assert.Equal(t, StatusSuccess, ok.Status.StatusCode.Value)
	assert.Equal(t, "_req-1", ok.InResponseTo)

	failed := NewResponse("https://idp.example.org/saml/metadata", "https://sp.example.com/saml/acs", "", false)
	assert.Equal(t, StatusResponder, failed.Status.StatusCode.Value)
}

func TestResponseMarshalRoundTrip(t *testing.T) {
	resp := NewResponse("https://idp.example.org/saml/metadata", "https://sp.example.com/saml/acs", "_req-1", true)
	resp.Assertions = []*Assertion{NewAssertion(
		"https://idp.example.org/saml/metadata",
		"https://sp.example.com/saml/metadata",
		"user@example.com",
		NameIDFormatEmail,
		"sess-1",
		map[string][]string{"displayName": {"Test User"}},
	)}

	data, err := Marshal(resp)
	require.NoError(t, err)

	var parsed Response
	require.NoError(t, Unmarshal(data, &parsed))

	assert.Equal(t, resp.ID, parsed.ID)
	require.Len(t, parsed.Assertions, 1)
	a := parsed.Assertions[0]
	assert.Equal(t, "user@example.com", a.Subject.NameID.Value)
	assert.Equal(t, NameIDFormatEmail, a.Subject.NameID.Format)
	assert.Equal(t, "sess-1", a.AuthnStatements[0].SessionIndex)
	require.Len(t, a.AttributeStatements, 1)
	assert.Equal(t, "displayName", a.AttributeStatements[0].Attributes[0].Name)
	assert.Equal(t, "Test User", a.AttributeStatements[0].Attributes[0].AttributeValues[0].Value)
}

func TestNewAssertionBearerConfirmation(t *testing.T) {
	a := NewAssertion(
		"https://idp.example.org/saml/metadata",
		"https://sp.example.com/saml/metadata",
		"user@example.com",
		NameIDFormatEmail,
		"sess-1",
		nil,
	)

	require.Len(t, a.Subject.SubjectConfirmations, 1)
	sc := a.Subject.SubjectConfirmations[0]
	assert.Equal(t, SubjectConfirmationMethodBearer, sc.Method)
	assert.NotEmpty(t, sc.SubjectConfirmationData.NotOnOrAfter)
	require.Len(t, a.Conditions.AudienceRestrictions, 1)
	assert.Equal(t, []string{"https://sp.example.com/saml/metadata"}, a.Conditions.AudienceRestrictions[0].Audience)
	assert.Nil(t, a.AttributeStatements)
}
