package ssocore

import (
	"fmt"

	"github.com/saml2validator/ssoval/internal/saml"
)

// NameIdentifier carries the subject identifier's value plus its SAML
// qualifiers, regardless of whether it came from a NameID, a BaseID, or a
// decrypted EncryptedID.
type NameIdentifier struct {
	Value           string
	Format          string
	NameQualifier   string
	SPNameQualifier string
}

// ConditionsSnapshot is a durable copy of the selected assertion's
// Conditions, carried on the credential for callers that want it without
// re-walking the assertion.
type ConditionsSnapshot struct {
	NotBefore    string
	NotOnOrAfter string
	Audiences    []string
}

// Credential is the sole durable output of a successful Validate call.
type Credential struct {
	NameID                    NameIdentifier
	IssuerEntityID            string
	Attributes                map[string][]string
	Conditions                ConditionsSnapshot
	SessionIndex              string
	AuthnContextClassRefs     []string
	AuthenticatingAuthorities []string
	InResponseTo              string
}

// ValidationState is the per-request working set mutated as validation
// proceeds: the read/write counterpart to the read-only ValidationConfig. Only its final
// SubjectAssertion/NameID/AcceptedConfirmations matter to callers; everything
// else is validator-internal bookkeeping exposed for tracing and tests.
type ValidationState struct {
	OriginalRequest *saml.AuthnRequest // resolved via SentMessageStore, may be nil

	SubjectAssertion      *saml.Assertion
	BaseID                *saml.BaseID // recorded when the subject carries a BaseID instead of a NameID
	SubjectNameID         *saml.NameID
	SAMLIDFound           bool
	AcceptedConfirmations []*saml.SubjectConfirmation

	Warnings []string
	Trace    []TraceEvent
}

func (s *ValidationState) warn(format string, args ...interface{}) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}
