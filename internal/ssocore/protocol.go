package ssocore

import (
	"context"
	"fmt"
	"time"

	"github.com/saml2validator/ssoval/internal/saml"
)

// validateProtocol runs the envelope-level checks in a fixed order. Any
// failure aborts with the corresponding error kind before assertion
// selection ever looks at an assertion.
func validateProtocol(ctx context.Context, resp *saml.Response, cfg *ValidationConfig, engine SignatureTrustEngine, state *ValidationState, now time.Time) *ValidationError {
	// 1. Status.
	if resp.Status == nil || resp.Status.StatusCode.Value != saml.StatusSuccess {
		chain := statusChain(resp.Status)
		return newErr(StatusFailure, "response status is not success", "SAML Core 3.2.2.2", chain)
	}

	// 2. Version.
	if resp.Version != "2.0" {
		return newErr(InvalidMessage, "unsupported SAML version", "SAML Core 3.2.2", resp.Version)
	}

	// 3. Response signature presence, then verify if present.
	if cfg.WantsResponsesSigned && resp.Signature == nil {
		return newErr(SignatureRequired, "response signature required but absent", "SAML Core 5.3", "")
	}
	if !cfg.AllSignatureValidationOff {
		if verr := verifyIfPresent(ctx, engine, resp.Signature, resp.ID, cfg.Peer.EntityID); verr != nil {
			return verr
		}
	}

	// 4. Issue instant.
	issueInstant, err := parseInstant(resp.IssueInstant)
	if err != nil {
		return wrapf(InvalidMessage, "SAML Core 1.3.3", err, "unparseable IssueInstant %q", resp.IssueInstant)
	}
	if !isWithin(issueInstant, now, cfg.MaxAuthnLifetimeSeconds) {
		return newErr(IssueInstant, "IssueInstant outside maximum authentication lifetime", "SAML Profiles 4.1.4.2", resp.IssueInstant)
	}

	// 5. InResponseTo binding.
	if resp.InResponseTo != "" && cfg.SentMessages != nil {
		original, found, err := cfg.SentMessages.Get(ctx, resp.InResponseTo)
		if err != nil {
			return wrapf(InResponseToMismatch, "SAML Profiles 4.1.4.3", err, "sent-message lookup failed for %s", resp.InResponseTo)
		}
		if !found || original == nil {
			return newErr(InResponseToMismatch, "InResponseTo does not match any pending request", "SAML Profiles 4.1.4.3", resp.InResponseTo)
		}
		if original.Kind != SentAuthnRequest || original.AuthnRequest == nil {
			return newErr(InResponseToMismatch, "InResponseTo matches a message that is not an AuthnRequest", "SAML Profiles 4.1.4.3", resp.InResponseTo)
		}
		state.OriginalRequest = original.AuthnRequest
	}

	// 6. Destination.
	if resp.Destination != "" {
		cmp := cfg.comparator()
		acceptable := []string{cfg.Endpoint.Location}
		if cfg.Endpoint.ResponseLocation != "" {
			acceptable = append(acceptable, cfg.Endpoint.ResponseLocation)
		}
		matched := false
		for _, a := range acceptable {
			if cmp.Equal(resp.Destination, a) {
				matched = true
				break
			}
		}
		if !matched {
			return newErr(EndpointMismatch, "response Destination not in acceptable endpoint set", "SAML Profiles 4.1.4.2", resp.Destination)
		}
	} else if cfg.ResponseDestinationMandatory {
		return newErr(EndpointMismatch, "response Destination is required but absent", "SAML Profiles 4.1.4.2", "")
	}

	// 7. Request cross-checks (non-fatal diagnostics).
	if state.OriginalRequest != nil {
		crossCheckRequest(state.OriginalRequest, cfg.Endpoint, state)
	}

	// 8. Issuer.
	if resp.Issuer != nil && resp.Issuer.Value != "" && resp.Issuer.Value != cfg.Peer.EntityID {
		return newErr(IssuerMismatch, "response Issuer does not match expected peer entity", "SAML Core 2.2.5", resp.Issuer.Value)
	}

	return nil
}

func crossCheckRequest(req *saml.AuthnRequest, endpoint Endpoint, state *ValidationState) {
	if req.AssertionConsumerServiceIndex != 0 {
		if req.AssertionConsumerServiceIndex != endpoint.Index {
			state.warn("original request's AssertionConsumerServiceIndex (%d) does not match the resolved endpoint index (%d)", req.AssertionConsumerServiceIndex, endpoint.Index)
		}
		return
	}
	if req.AssertionConsumerServiceURL != "" && req.AssertionConsumerServiceURL != endpoint.Location {
		state.warn("original request's AssertionConsumerServiceURL (%s) differs from the resolved endpoint (%s)", req.AssertionConsumerServiceURL, endpoint.Location)
	}
	if req.ProtocolBinding != "" && req.ProtocolBinding != endpoint.Binding {
		state.warn("original request's ProtocolBinding (%s) differs from the resolved endpoint binding (%s)", req.ProtocolBinding, endpoint.Binding)
	}
}

func statusChain(status *saml.Status) string {
	if status == nil {
		return "<no Status element>"
	}
	chain := status.StatusCode.Value
	code := status.StatusCode.StatusCode
	for code != nil {
		chain += " -> " + code.Value
		code = code.StatusCode
	}
	if status.StatusMessage != "" {
		chain += fmt.Sprintf(" (%s)", status.StatusMessage)
	}
	return chain
}
