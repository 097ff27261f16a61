package ssocore

import (
	"context"
	"net/url"
	"time"

	"github.com/saml2validator/ssoval/internal/saml"
)

// selectSubjectAssertion iterates assertions in document order and returns
// the first one that both carries an authn statement and passes
// validateAssertion. An error is only surfaced when no candidate succeeds at
// all — see DESIGN.md for the reasoning.
func selectSubjectAssertion(ctx context.Context, assertions []*saml.Assertion, cfg *ValidationConfig, engine SignatureTrustEngine, state *ValidationState, now time.Time) (*saml.Assertion, *ValidationError) {
	var firstErr *ValidationError
	for _, a := range assertions {
		if a == nil || len(a.AuthnStatements) == 0 {
			continue
		}
		if verr := validateAssertion(ctx, a, cfg, engine, state, now); verr != nil {
			if firstErr == nil {
				firstErr = verr
			}
			continue
		}
		return a, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, newErr(NoSubjectAssertion, "no authn-bearing assertion passed validation", "SAML Profiles 4.1.4.2", "")
}

// validateAssertion runs the seven per-assertion checks in order.
func validateAssertion(ctx context.Context, a *saml.Assertion, cfg *ValidationConfig, engine SignatureTrustEngine, state *ValidationState, now time.Time) *ValidationError {
	// 1. Version.
	if a.Version != "2.0" {
		return newErr(InvalidMessage, "assertion has unsupported SAML version", "SAML Core 2.3.3", a.Version)
	}

	// 2. Issue instant.
	issueInstant, err := parseInstant(a.IssueInstant)
	if err != nil {
		return wrapf(InvalidMessage, "SAML Core 1.3.3", err, "unparseable assertion IssueInstant %q", a.IssueInstant)
	}
	if !isWithin(issueInstant, now, cfg.MaxAuthnLifetimeSeconds) {
		return newErr(IssueInstant, "assertion IssueInstant outside maximum authentication lifetime", "SAML Profiles 4.1.4.2", a.IssueInstant)
	}

	// 3. Issuer.
	if a.Issuer == nil || a.Issuer.Value != cfg.Peer.EntityID {
		return newErr(IssuerMismatch, "assertion Issuer does not match expected peer entity", "SAML Core 2.3.3", issuerValue(a.Issuer))
	}

	// 4. Subject.
	if a.Subject == nil {
		return newErr(NoSubjectAssertion, "assertion has no Subject", "SAML Core 2.4.1", "")
	}
	if verr := validateSubject(ctx, a.Subject, a.ID, cfg, state, now); verr != nil {
		return verr
	}

	// 5. Conditions.
	if a.Conditions != nil {
		if verr := validateConditions(a.Conditions, cfg, now); verr != nil {
			return verr
		}
	}

	// 6. Authn statements.
	if verr := validateAuthnStatements(a.AuthnStatements, cfg, now); verr != nil {
		return verr
	}

	// 7. Assertion signature.
	if verr := checkAssertionSignature(ctx, a, cfg, engine); verr != nil {
		return verr
	}

	return nil
}

func issuerValue(i *saml.Issuer) string {
	if i == nil {
		return ""
	}
	return i.Value
}

func validateConditions(c *saml.Conditions, cfg *ValidationConfig, now time.Time) *ValidationError {
	if c.NotBefore != "" {
		t, err := parseInstant(c.NotBefore)
		if err != nil {
			return wrapf(AssertionCondition, "SAML Core 2.5.1.2", err, "unparseable Conditions NotBefore %q", c.NotBefore)
		}
		if !notBeforeOk(t, now, cfg.ClockSkewSeconds) {
			return newErr(AssertionCondition, "Conditions NotBefore is in the future", "SAML Core 2.5.1.2", c.NotBefore)
		}
	}
	if c.NotOnOrAfter != "" {
		t, err := parseInstant(c.NotOnOrAfter)
		if err != nil {
			return wrapf(AssertionCondition, "SAML Core 2.5.1.2", err, "unparseable Conditions NotOnOrAfter %q", c.NotOnOrAfter)
		}
		if !notOnOrAfterOk(t, now, cfg.ClockSkewSeconds) {
			return newErr(AssertionCondition, "Conditions NotOnOrAfter has expired", "SAML Core 2.5.1.2", c.NotOnOrAfter)
		}
	}
	if len(c.AudienceRestrictions) == 0 {
		return newErr(AudienceRestriction, "assertion has no AudienceRestriction", "SAML Core 2.5.1.4", "")
	}
	for _, ar := range c.AudienceRestrictions {
		found := false
		for _, aud := range ar.Audience {
			if aud == cfg.SelfEntityID {
				found = true
				break
			}
		}
		if !found {
			return newErr(AudienceRestriction, "AudienceRestriction does not contain the SP entity id", "SAML Core 2.5.1.4", cfg.SelfEntityID)
		}
	}
	return nil
}

func validateAuthnStatements(statements []*saml.AuthnStatement, cfg *ValidationConfig, now time.Time) *ValidationError {
	classRefs, _ := collectAuthnContext(statements)
	for _, s := range statements {
		instant, err := parseInstant(s.AuthnInstant)
		if err != nil {
			return wrapf(AuthnInstant, "SAML Core 2.7.2", err, "unparseable AuthnInstant %q", s.AuthnInstant)
		}
		if !isWithin(instant, now, cfg.MaxAuthnLifetimeSeconds) {
			return newErr(AuthnInstant, "AuthnInstant outside maximum authentication lifetime", "SAML Profiles 4.1.4.2", s.AuthnInstant)
		}
		if s.SessionNotOnOrAfter != "" {
			t, err := parseInstant(s.SessionNotOnOrAfter)
			if err != nil {
				return wrapf(AuthnSessionCriteria, "SAML Core 2.7.2", err, "unparseable SessionNotOnOrAfter %q", s.SessionNotOnOrAfter)
			}
			if !t.After(now) {
				return newErr(AuthnSessionCriteria, "SessionNotOnOrAfter is in the past", "SAML Core 2.7.2", s.SessionNotOnOrAfter)
			}
		}
	}
	if len(cfg.RequiredAuthnContextClassRefs) > 0 && !containsAll(classRefs, cfg.RequiredAuthnContextClassRefs) {
		return newErr(AuthnContextClassRef, "required AuthnContextClassRef set not satisfied", "SAML Core 2.7.2.2", "")
	}
	return nil
}

// collectAuthnContext assembles the distinct class refs and authorities
// across all authn statements, used both for the required-set check above
// and for principal derivation once an assertion is selected.
func collectAuthnContext(statements []*saml.AuthnStatement) (classRefs []string, authorities []string) {
	for _, s := range statements {
		if s.AuthnContext == nil {
			continue
		}
		if s.AuthnContext.AuthnContextClassRef != "" {
			classRefs = append(classRefs, s.AuthnContext.AuthnContextClassRef)
		}
		authorities = append(authorities, s.AuthnContext.AuthenticatingAuthority...)
	}
	return classRefs, authorities
}

func containsAll(have, required []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, r := range required {
		if !set[r] {
			return false
		}
	}
	return true
}

func checkAssertionSignature(ctx context.Context, a *saml.Assertion, cfg *ValidationConfig, engine SignatureTrustEngine) *ValidationError {
	if a.Signature != nil {
		if cfg.AllSignatureValidationOff {
			return nil
		}
		return verify(ctx, engine, a.Signature, a.ID, cfg.Peer.EntityID)
	}
	if cfg.wantsAssertionsSigned() {
		return newErr(SignatureRequired, "assertion signature required (configuration or SP descriptor) but absent", "SAML Core 5.3", "")
	}
	if !cfg.Peer.Authenticated && !cfg.AllSignatureValidationOff {
		return newErr(SignatureRequired, "assertion signature required for an unauthenticated peer but absent", "SAML Core 5.3", "")
	}
	return nil
}

// validateSubject walks the subject confirmations and records the accepted
// identifier and confirmation.
func validateSubject(ctx context.Context, subj *saml.Subject, assertionID string, cfg *ValidationConfig, state *ValidationState, now time.Time) *ValidationError {
	nameID := subj.NameID
	baseID := subj.BaseID

	if subj.EncryptedID != nil {
		decrypted, err := decryptID(ctx, subj.EncryptedID, cfg.Decrypter)
		if err != nil {
			state.warn("subject EncryptedID failed to decrypt: %v", err)
		} else if decrypted != nil {
			nameID = decrypted
		}
	}

	if nameID != nil || baseID != nil {
		state.SubjectNameID = nameID
		state.BaseID = baseID
		state.SAMLIDFound = true
	}

	var subjectErr *ValidationError
	for _, conf := range subj.SubjectConfirmations {
		if conf.Method != saml.SubjectConfirmationMethodBearer {
			continue
		}
		confNameID := nameID
		if conf.EncryptedID != nil {
			decrypted, err := decryptID(ctx, conf.EncryptedID, cfg.Decrypter)
			if err != nil {
				state.warn("SubjectConfirmation EncryptedID failed to decrypt: %v", err)
			} else if decrypted != nil {
				confNameID = decrypted
			}
		}

		if verr := validateBearerConfirmationData(ctx, conf, assertionID, cfg, state, now); verr != nil {
			subjectErr = verr
			continue
		}

		if !state.SAMLIDFound {
			if confNameID != nil {
				state.SubjectNameID = confNameID
			} else if conf.BaseID != nil {
				state.BaseID = conf.BaseID
			}
			state.SAMLIDFound = state.SubjectNameID != nil || state.BaseID != nil
		}
		state.AcceptedConfirmations = append(state.AcceptedConfirmations, conf)
		return nil
	}

	if subjectErr != nil {
		return subjectErr
	}
	return newErr(SubjectConfirmation, "no valid bearer SubjectConfirmation found", "SAML Profiles 4.1.4.2", "")
}

func validateBearerConfirmationData(ctx context.Context, conf *saml.SubjectConfirmation, assertionID string, cfg *ValidationConfig, state *ValidationState, now time.Time) *ValidationError {
	data := conf.SubjectConfirmationData
	if data == nil {
		return newErr(SubjectConfirmation, "bearer SubjectConfirmation has no SubjectConfirmationData", "SAML Profiles 4.1.4.2", "")
	}
	if data.NotBefore != "" {
		return newErr(SubjectConfirmation, "bearer SubjectConfirmationData must not carry NotBefore", "SAML Profiles 4.1.4.2", data.NotBefore)
	}
	if data.NotOnOrAfter == "" {
		return newErr(SubjectConfirmation, "bearer SubjectConfirmationData requires NotOnOrAfter", "SAML Profiles 4.1.4.2", "")
	}
	expiry, err := parseInstant(data.NotOnOrAfter)
	if err != nil {
		return wrapf(SubjectConfirmation, "SAML Profiles 4.1.4.2", err, "unparseable SubjectConfirmationData NotOnOrAfter %q", data.NotOnOrAfter)
	}
	if !notOnOrAfterOk(expiry, now, cfg.ClockSkewSeconds) {
		return newErr(SubjectConfirmation, "bearer SubjectConfirmationData has expired", "SAML Profiles 4.1.4.2", data.NotOnOrAfter)
	}

	if data.Recipient == "" {
		return newErr(SubjectConfirmation, "bearer SubjectConfirmationData requires Recipient", "SAML Profiles 4.1.4.2", "")
	}
	if _, err := url.Parse(data.Recipient); err != nil {
		return wrapf(SubjectConfirmation, "SAML Profiles 4.1.4.2", err, "unparseable Recipient %q", data.Recipient)
	}
	if !cfg.comparator().Equal(data.Recipient, cfg.Endpoint.Location) {
		return newErr(SubjectConfirmation, "bearer Recipient does not match the SP endpoint location", "SAML Profiles 4.1.4.2", data.Recipient)
	}

	if cfg.ReplayCache != nil {
		if assertionID == "" {
			return newErr(Replay, "replay cache configured but assertion has no id", "SAML Profiles 4.1.4.5", "")
		}
		accepted, err := cfg.ReplayCache.Check(ctx, cfg.Scope, assertionID, expiry.Add(time.Duration(cfg.ClockSkewSeconds)*time.Second))
		if err != nil {
			return wrapf(Replay, "SAML Profiles 4.1.4.5", err, "replay cache check failed for %s", assertionID)
		}
		if !accepted {
			return newErr(Replay, "assertion id has already been accepted within its validity window", "SAML Profiles 4.1.4.5", assertionID)
		}
	} else {
		state.warn("no replay cache configured; skipping replay check for this confirmation")
	}

	return nil
}
