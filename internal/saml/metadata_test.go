package saml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const idpMetadataXML = `<?xml version="1.0"?>
<EntityDescriptor xmlns="urn:oasis:names:tc:SAML:2.0:metadata"
    xmlns:ds="http://www.w3.org/2000/09/xmldsig#"
    entityID="https://idp.example.org/saml/metadata">
  <IDPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">
    <KeyDescriptor use="signing">
      <ds:KeyInfo>
        <ds:X509Data>
          <ds:X509Certificate>TUlJQ2R6Q0NBZUN0ZXN0Y2VydA==</ds:X509Certificate>
        </ds:X509Data>
      </ds:KeyInfo>
    </KeyDescriptor>
    <SingleSignOnService
        Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
        Location="https://idp.example.org/saml/sso"/>
    <SingleLogoutService
        Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
        Location="https://idp.example.org/saml/slo"/>
  </IDPSSODescriptor>
</EntityDescriptor>`

const spMetadataXML = `<?xml version="1.0"?>
<EntityDescriptor xmlns="urn:oasis:names:tc:SAML:2.0:metadata"
    xmlns:ds="http://www.w3.org/2000/09/xmldsig#"
    entityID="https://sp.example.com/saml/metadata">
  <SPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol"
      WantAssertionsSigned="true">
    <AssertionConsumerService
        Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
        Location="https://sp.example.com/saml/acs" index="0" isDefault="true"/>
  </SPSSODescriptor>
</EntityDescriptor>`

func TestParseIdPEntityDescriptor(t *testing.T) {
	ed, err := ParseEntityDescriptor([]byte(idpMetadataXML))
	require.NoError(t, err)

	assert.Equal(t, "https://idp.example.org/saml/metadata", ed.EntityID)
	require.NotNil(t, ed.IDPSSODescriptor)
	assert.Nil(t, ed.SPSSODescriptor)

	require.Len(t, ed.IDPSSODescriptor.KeyDescriptors, 1)
	kd := ed.IDPSSODescriptor.KeyDescriptors[0]
	assert.Equal(t, "signing", kd.Use)
	require.NotNil(t, kd.KeyInfo.X509Data)
	assert.Contains(t, kd.KeyInfo.X509Data.X509Certificate, "TUlJQ2R6Q0NBZUN0ZXN0Y2VydA==")

	require.Len(t, ed.IDPSSODescriptor.SingleSignOnServices, 1)
	assert.Equal(t, "https://idp.example.org/saml/sso", ed.IDPSSODescriptor.SingleSignOnServices[0].Location)
}

func TestParseSPEntityDescriptor(t *testing.T) {
	ed, err := ParseEntityDescriptor([]byte(spMetadataXML))
	require.NoError(t, err)

	require.NotNil(t, ed.SPSSODescriptor)
	assert.True(t, ed.SPSSODescriptor.WantAssertionsSigned)
	require.Len(t, ed.SPSSODescriptor.AssertionConsumerServices, 1)
	acs := ed.SPSSODescriptor.AssertionConsumerServices[0]
	assert.Equal(t, "https://sp.example.com/saml/acs", acs.Location)
	assert.True(t, acs.IsDefault)
}

func TestParseEntityDescriptorMalformed(t *testing.T) {
	_, err := ParseEntityDescriptor([]byte("<EntityDescriptor"))
	require.Error(t, err)
}
