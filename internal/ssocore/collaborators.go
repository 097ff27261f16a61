package ssocore

import (
	"context"
	"time"

	"github.com/saml2validator/ssoval/internal/saml"
)

// SignatureTrustEngine verifies the signature on a single element (response
// or assertion) identified by its ID attribute, against trust material
// configured for expectedEntityID. A fresh engine is built per Validate call
// via SignatureTrustEngineProvider.Build, scoped to that call's raw document,
// so implementations never need to be safe for cross-call reuse — only for
// the concurrent collaborator calls a single response's validation may make.
type SignatureTrustEngine interface {
	Validate(ctx context.Context, elementID string, expectedEntityID string) error
}

// SignatureTrustEngineProvider builds a per-call SignatureTrustEngine bound
// to the raw XML document under validation, so the engine can re-locate the
// exact referenced element for canonicalization instead of operating on a
// round-tripped struct.
type SignatureTrustEngineProvider interface {
	Build(rawXML []byte) (SignatureTrustEngine, error)
}

// Decrypter resolves XML-Enc content. Each method returns a decryption error
// on failure; C3 treats those as non-fatal and skips the item with a warning.
type Decrypter interface {
	DecryptAssertion(ctx context.Context, enc *saml.EncryptedAssertion) (*saml.Assertion, error)
	DecryptNameID(ctx context.Context, enc *saml.EncryptedID) (*saml.NameID, error)
	DecryptAttribute(ctx context.Context, enc *saml.EncryptedAttribute) (*saml.Attribute, error)
}

// ReplayCache enforces at-most-once acceptance of (scope, id) within a
// validity window. Implementations must be safe for concurrent use across
// independent requests.
type ReplayCache interface {
	// Check returns true if (scope, id) has never been accepted before and
	// records it as used for the remainder of its window; false on repeat.
	Check(ctx context.Context, scope string, id string, expiresAt time.Time) (bool, error)
}

// SentMessageKind tags which protocol message a stored correlation id
// belongs to.
type SentMessageKind int

const (
	SentAuthnRequest SentMessageKind = iota
	SentLogoutRequest
)

// SentMessage is the tagged union a SentMessageStore hands back: exactly one
// of the message pointers matching Kind is populated.
type SentMessage struct {
	Kind          SentMessageKind
	AuthnRequest  *saml.AuthnRequest
	LogoutRequest *saml.LogoutRequest
}

// SentMessageStore looks up a previously issued message by its correlation
// id, for InResponseTo binding checks. A found entry whose Kind is not
// SentAuthnRequest is a mismatch the protocol validator rejects.
type SentMessageStore interface {
	Get(ctx context.Context, id string) (*SentMessage, bool, error)
}

// SentMessageRecorder is the write side of a SentMessageStore: the
// request-issuing endpoints record outbound messages here so later
// responses can bind to them.
type SentMessageRecorder interface {
	PutAuthnRequest(ctx context.Context, req *saml.AuthnRequest) error
	PutLogoutRequest(ctx context.Context, req *saml.LogoutRequest) error
}

// LogoutHandler records a session for later Single Logout bookkeeping.
// Best-effort, fire-and-forget: the validator never fails on its error.
type LogoutHandler interface {
	RecordSession(ctx context.Context, key string) error
}

// AttributeConverter turns a raw attribute name/value list into the
// profile-specific representation the caller wants in the credential. Pure.
type AttributeConverter interface {
	Convert(name string, rawValues []string) []string
}

// UriComparator compares two endpoint URIs for equality, e.g. tolerating
// default-port vs explicit-port variants of the same origin.
type UriComparator interface {
	Equal(a, b string) bool
}

// DefaultAttributeConverter passes attribute values through unchanged.
type DefaultAttributeConverter struct{}

func (DefaultAttributeConverter) Convert(_ string, rawValues []string) []string {
	return rawValues
}
