package ssocore

import "fmt"

// ErrorKind classifies a validation failure. Every kind is fatal to the
// current Validate call — none of them are retryable without a different
// input or a reconfigured validator.
type ErrorKind string

const (
	InvalidMessage       ErrorKind = "InvalidMessage"
	StatusFailure        ErrorKind = "StatusFailure"
	SignatureRequired    ErrorKind = "SignatureRequired"
	SignatureValidation  ErrorKind = "SignatureValidation"
	IssuerMismatch       ErrorKind = "IssuerMismatch"
	IssueInstant         ErrorKind = "IssueInstant"
	InResponseToMismatch ErrorKind = "InResponseToMismatch"
	EndpointMismatch     ErrorKind = "EndpointMismatch"
	NoSubjectAssertion   ErrorKind = "NoSubjectAssertion"
	SubjectConfirmation  ErrorKind = "SubjectConfirmation"
	AssertionCondition   ErrorKind = "AssertionCondition"
	AudienceRestriction  ErrorKind = "AudienceRestriction"
	AuthnInstant         ErrorKind = "AuthnInstant"
	AuthnSessionCriteria ErrorKind = "AuthnSessionCriteria"
	AuthnContextClassRef ErrorKind = "AuthnContextClassRef"
	Replay               ErrorKind = "Replay"
)

// ValidationError is the typed error surfaced by every component: a kind,
// a human-readable message, optional detail, and the SAML standard section the
// rejected requirement comes from.
type ValidationError struct {
	Kind       ErrorKind
	Message    string
	Detail     string
	RFCSection string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
}

func newErr(kind ErrorKind, message string, rfc string, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message, Detail: detail, RFCSection: rfc}
}

// wrapf classifies an underlying collaborator error under kind, keeping its
// message as Detail so callers using errors.As still see the root cause.
func wrapf(kind ErrorKind, rfc string, err error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Detail:     err.Error(),
		RFCSection: rfc,
	}
}
