package ssocore

import "github.com/saml2validator/ssoval/internal/saml"

// Endpoint is the SP's assertion-consumer endpoint this validator is
// checking the response against.
type Endpoint struct {
	Location         string
	ResponseLocation string
	Index            int
	Binding          string
}

// PeerEntity is the IdP this response is expected to have come from.
type PeerEntity struct {
	EntityID      string
	Authenticated bool
}

// ValidationConfig is the read-only configuration view threaded through
// every check. It is built once by the binding layer (from env config plus
// loaded key/metadata material) and reused across requests.
type ValidationConfig struct {
	WantsResponsesSigned       bool
	WantsAssertionsSigned      bool
	SPDescriptor               *saml.SPSSODescriptor // overrides WantsAssertionsSigned when non-nil
	AllSignatureValidationOff  bool
	MaxAuthnLifetimeSeconds    int // <= 0 disables issue-instant/authn-instant windows
	ClockSkewSeconds           int
	ResponseDestinationMandatory bool
	RequiredAuthnContextClassRefs []string
	NameIDAttribute            string
	URIComparator              UriComparator
	AttributeConverter         AttributeConverter

	Endpoint Endpoint
	Peer     PeerEntity
	SelfEntityID string // the SP's own entity id, used as the expected audience

	TrustEngineProvider SignatureTrustEngineProvider
	Decrypter           Decrypter // optional
	ReplayCache         ReplayCache // optional
	SentMessages        SentMessageStore // optional
	LogoutHandler       LogoutHandler // optional
	Scope               string // replay cache scope / validator class identity
}

// wantsAssertionsSigned resolves the SP descriptor override, which takes
// precedence over the static flag when present.
func (c *ValidationConfig) wantsAssertionsSigned() bool {
	if c.SPDescriptor != nil {
		return c.SPDescriptor.WantAssertionsSigned
	}
	return c.WantsAssertionsSigned
}

func (c *ValidationConfig) comparator() UriComparator {
	if c.URIComparator != nil {
		return c.URIComparator
	}
	return DefaultURIComparator{}
}

func (c *ValidationConfig) converter() AttributeConverter {
	if c.AttributeConverter != nil {
		return c.AttributeConverter
	}
	return DefaultAttributeConverter{}
}
