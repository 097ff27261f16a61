package ssocore

import (
	"context"
	"time"

	"github.com/saml2validator/ssoval/internal/saml"
)

// Validate is the validator's single entry point: a synchronous, blocking
// call on one logical response. It holds no state of its own beyond the
// injected collaborators in cfg; callers may invoke it concurrently from
// independent goroutines, one response each.
//
// rawXML is the exact bytes the IdP sent (after binding decode, before any
// re-marshaling), handed to the signature trust engine so it can verify
// against the original document rather than a round-tripped struct.
func Validate(ctx context.Context, resp *saml.Response, rawXML []byte, cfg *ValidationConfig) (*Credential, *ValidationState, error) {
	state := &ValidationState{}
	now := time.Now().UTC()

	var engine SignatureTrustEngine
	if cfg.TrustEngineProvider != nil {
		built, err := cfg.TrustEngineProvider.Build(rawXML)
		if err != nil {
			return nil, state, wrapf(SignatureValidation, "XML-DSig Core", err, "failed to build signature trust engine")
		}
		engine = built
	}

	if verr := validateProtocol(ctx, resp, cfg, engine, state, now); verr != nil {
		state.trace("protocol", "envelope", false, verr.Error(), now)
		return nil, state, verr
	}
	state.trace("protocol", "envelope", true, "", now)

	assertions := decryptAssertions(ctx, resp, cfg.Decrypter, state)
	state.trace("decryption", "assertions", true, "", now)

	selected, verr := selectSubjectAssertion(ctx, assertions, cfg, engine, state, now)
	if verr != nil {
		state.trace("assertion", "select-subject", false, verr.Error(), now)
		return nil, state, verr
	}
	state.SubjectAssertion = selected
	state.trace("assertion", "select-subject", true, selected.ID, now)

	cred, verr := buildCredential(ctx, resp, selected, cfg, state)
	if verr != nil {
		state.trace("assertion", "build-credential", false, verr.Error(), now)
		return nil, state, verr
	}
	state.trace("assertion", "build-credential", true, "", now)

	return cred, state, nil
}

// buildCredential assembles the output credential from the selected
// assertion.
func buildCredential(ctx context.Context, resp *saml.Response, a *saml.Assertion, cfg *ValidationConfig, state *ValidationState) (*Credential, *ValidationError) {
	attributes := collectAttributes(ctx, a, cfg, state)

	nameID, verr := determineNameID(attributes, state, cfg)
	if verr != nil {
		return nil, verr
	}

	var sessionIndex string
	if len(a.AuthnStatements) > 0 {
		sessionIndex = a.AuthnStatements[0].SessionIndex
	}

	if cfg.LogoutHandler != nil {
		if key := logoutKey(sessionIndex, nameID.Value); key != "" {
			// Best-effort: the validator never fails on a bookkeeping error.
			_ = cfg.LogoutHandler.RecordSession(ctx, key)
		}
	}

	classRefs, authorities := collectAuthnContext(a.AuthnStatements)

	cred := &Credential{
		NameID:                    nameID,
		IssuerEntityID:            issuerValue(a.Issuer),
		Attributes:                attributes,
		SessionIndex:              sessionIndex,
		AuthnContextClassRefs:     classRefs,
		AuthenticatingAuthorities: authorities,
		InResponseTo:              resp.InResponseTo,
	}
	if a.Conditions != nil {
		cred.Conditions = snapshotConditions(a.Conditions)
	}
	return cred, nil
}

func snapshotConditions(c *saml.Conditions) ConditionsSnapshot {
	var audiences []string
	for _, ar := range c.AudienceRestrictions {
		audiences = append(audiences, ar.Audience...)
	}
	return ConditionsSnapshot{
		NotBefore:    c.NotBefore,
		NotOnOrAfter: c.NotOnOrAfter,
		Audiences:    audiences,
	}
}

func collectAttributes(ctx context.Context, a *saml.Assertion, cfg *ValidationConfig, state *ValidationState) map[string][]string {
	converter := cfg.converter()
	out := make(map[string][]string)
	for _, stmt := range a.AttributeStatements {
		if stmt == nil {
			continue
		}
		resolved := decryptAttributes(ctx, stmt, cfg.Decrypter, state)
		for _, attr := range resolved {
			values := make([]string, len(attr.AttributeValues))
			for i, v := range attr.AttributeValues {
				values[i] = v.Value
			}
			out[attr.Name] = append(out[attr.Name], converter.Convert(attr.Name, values)...)
		}
	}
	return out
}

// determineNameID resolves the principal identifier: an explicitly
// configured attribute-derived name id takes precedence over the subject
// identifier recorded during validateSubject.
func determineNameID(attributes map[string][]string, state *ValidationState, cfg *ValidationConfig) (NameIdentifier, *ValidationError) {
	if cfg.NameIDAttribute != "" {
		if values, ok := attributes[cfg.NameIDAttribute]; ok && len(values) > 0 {
			return NameIdentifier{Value: values[0]}, nil
		}
	}
	if state.SubjectNameID != nil {
		return NameIdentifier{
			Value:           state.SubjectNameID.Value,
			Format:          state.SubjectNameID.Format,
			NameQualifier:   state.SubjectNameID.NameQualifier,
			SPNameQualifier: state.SubjectNameID.SPNameQualifier,
		}, nil
	}
	if state.BaseID != nil {
		return NameIdentifier{Value: state.BaseID.Value}, nil
	}
	return NameIdentifier{}, newErr(NoSubjectAssertion, "no subject identifier available at credential build time; preceding checks were inconsistent", "SAML Profiles 4.1.4.2", "")
}

func logoutKey(sessionIndex, nameID string) string {
	if sessionIndex == "" && nameID == "" {
		return ""
	}
	return sessionIndex + "|" + nameID
}
