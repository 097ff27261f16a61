package saml

import (
	"encoding/xml"
)

// ============================================================================
// SAML Metadata Types (SAML 2.0 Metadata)
// ============================================================================

// EntityDescriptor represents a SAML metadata EntityDescriptor
type EntityDescriptor struct {
	XMLName          xml.Name          `xml:"urn:oasis:names:tc:SAML:2.0:metadata EntityDescriptor"`
	DS               string            `xml:"xmlns:ds,attr"`
	EntityID         string            `xml:"entityID,attr"`
	ValidUntil       string            `xml:"validUntil,attr,omitempty"`
	CacheDuration    string            `xml:"cacheDuration,attr,omitempty"`
	SPSSODescriptor  *SPSSODescriptor  `xml:"SPSSODescriptor,omitempty"`
	IDPSSODescriptor *IDPSSODescriptor `xml:"IDPSSODescriptor,omitempty"`
	Organization     *Organization     `xml:"Organization,omitempty"`
	ContactPerson    []ContactPerson   `xml:"ContactPerson,omitempty"`
}

// SPSSODescriptor represents the Service Provider SSO Descriptor
type SPSSODescriptor struct {
	XMLName                    xml.Name                     `xml:"urn:oasis:names:tc:SAML:2.0:metadata SPSSODescriptor"`
	ProtocolSupportEnumeration string                       `xml:"protocolSupportEnumeration,attr"`
	AuthnRequestsSigned        bool                         `xml:"AuthnRequestsSigned,attr,omitempty"`
	WantAssertionsSigned       bool                         `xml:"WantAssertionsSigned,attr,omitempty"`
	KeyDescriptors             []KeyDescriptor              `xml:"KeyDescriptor,omitempty"`
	SingleLogoutServices       []SingleLogoutService        `xml:"SingleLogoutService,omitempty"`
	NameIDFormats              []string                     `xml:"NameIDFormat,omitempty"`
	AssertionConsumerServices  []AssertionConsumerService   `xml:"AssertionConsumerService"`
	AttributeConsumingServices []AttributeConsumingService  `xml:"AttributeConsumingService,omitempty"`
}

// IDPSSODescriptor represents the Identity Provider SSO Descriptor
type IDPSSODescriptor struct {
	XMLName                    xml.Name                `xml:"urn:oasis:names:tc:SAML:2.0:metadata IDPSSODescriptor"`
	ProtocolSupportEnumeration string                  `xml:"protocolSupportEnumeration,attr"`
	WantAuthnRequestsSigned    bool                    `xml:"WantAuthnRequestsSigned,attr,omitempty"`
	KeyDescriptors             []KeyDescriptor         `xml:"KeyDescriptor,omitempty"`
	SingleLogoutServices       []SingleLogoutService   `xml:"SingleLogoutService,omitempty"`
	NameIDFormats              []string                `xml:"NameIDFormat,omitempty"`
	SingleSignOnServices       []SingleSignOnService   `xml:"SingleSignOnService"`
	Attributes                 []MetadataAttribute     `xml:"Attribute,omitempty"`
}

// KeyDescriptor represents a key descriptor in metadata
type KeyDescriptor struct {
	XMLName xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata KeyDescriptor"`
	Use     string   `xml:"use,attr,omitempty"` // "signing" or "encryption"
	KeyInfo KeyInfo  `xml:"KeyInfo"`
}

// SingleLogoutService represents a Single Logout Service endpoint
type SingleLogoutService struct {
	XMLName          xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata SingleLogoutService"`
	Binding          string   `xml:"Binding,attr"`
	Location         string   `xml:"Location,attr"`
	ResponseLocation string   `xml:"ResponseLocation,attr,omitempty"`
}

// SingleSignOnService represents a Single Sign-On Service endpoint
type SingleSignOnService struct {
	XMLName  xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata SingleSignOnService"`
	Binding  string   `xml:"Binding,attr"`
	Location string   `xml:"Location,attr"`
}

// AssertionConsumerService represents an Assertion Consumer Service endpoint
type AssertionConsumerService struct {
	XMLName   xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata AssertionConsumerService"`
	Binding   string   `xml:"Binding,attr"`
	Location  string   `xml:"Location,attr"`
	Index     int      `xml:"index,attr"`
	IsDefault bool     `xml:"isDefault,attr,omitempty"`
}

// AttributeConsumingService represents requested attributes
type AttributeConsumingService struct {
	XMLName             xml.Name                   `xml:"urn:oasis:names:tc:SAML:2.0:metadata AttributeConsumingService"`
	Index               int                        `xml:"index,attr"`
	IsDefault           bool                       `xml:"isDefault,attr,omitempty"`
	ServiceNames        []LocalizedName            `xml:"ServiceName"`
	ServiceDescriptions []LocalizedName            `xml:"ServiceDescription,omitempty"`
	RequestedAttributes []RequestedAttribute       `xml:"RequestedAttribute,omitempty"`
}

// LocalizedName represents a localized string
type LocalizedName struct {
	XMLName xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata ServiceName"`
	Lang    string   `xml:"xml:lang,attr"`
	Value   string   `xml:",chardata"`
}

// RequestedAttribute represents a requested attribute
type RequestedAttribute struct {
	XMLName      xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata RequestedAttribute"`
	Name         string   `xml:"Name,attr"`
	NameFormat   string   `xml:"NameFormat,attr,omitempty"`
	FriendlyName string   `xml:"FriendlyName,attr,omitempty"`
	IsRequired   bool     `xml:"isRequired,attr,omitempty"`
}

// MetadataAttribute represents an attribute in IdP metadata
type MetadataAttribute struct {
	XMLName      xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:assertion Attribute"`
	Name         string   `xml:"Name,attr"`
	NameFormat   string   `xml:"NameFormat,attr,omitempty"`
	FriendlyName string   `xml:"FriendlyName,attr,omitempty"`
}

// Organization represents organization information
type Organization struct {
	XMLName                  xml.Name          `xml:"urn:oasis:names:tc:SAML:2.0:metadata Organization"`
	OrganizationNames        []LocalizedName   `xml:"OrganizationName"`
	OrganizationDisplayNames []LocalizedName   `xml:"OrganizationDisplayName"`
	OrganizationURLs         []LocalizedURL    `xml:"OrganizationURL"`
}

// LocalizedURL represents a localized URL
type LocalizedURL struct {
	Lang  string `xml:"xml:lang,attr"`
	Value string `xml:",chardata"`
}

// ContactPerson represents contact information
type ContactPerson struct {
	XMLName      xml.Name `xml:"urn:oasis:names:tc:SAML:2.0:metadata ContactPerson"`
	ContactType  string   `xml:"contactType,attr"` // technical, support, administrative, billing, other
	Company      string   `xml:"Company,omitempty"`
	GivenName    string   `xml:"GivenName,omitempty"`
	SurName      string   `xml:"SurName,omitempty"`
	EmailAddress []string `xml:"EmailAddress,omitempty"`
	TelephoneNumber []string `xml:"TelephoneNumber,omitempty"`
}

// ParseEntityDescriptor unmarshals a peer's published metadata document.
// Metadata resolution (fetching, caching, trust chains) is an external
// collaborator; parsing is kept here because the validator reads the SP
// descriptor's WantAssertionsSigned flag and the IdP descriptor's signing
// certificates from the result.
func ParseEntityDescriptor(xmlData []byte) (*EntityDescriptor, error) {
	var ed EntityDescriptor
	if err := xml.Unmarshal(xmlData, &ed); err != nil {
		return nil, err
	}
	return &ed, nil
}

