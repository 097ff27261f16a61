package ssocore

import (
	"context"

	"github.com/saml2validator/ssoval/internal/saml"
)

// decryptAssertions resolves every EncryptedAssertion on the response into
// the combined in-memory view the rest of validation operates over. Per-item
// failures are recorded as warnings and skipped; a single malformed
// encrypted assertion never poisons the rest of the response.
func decryptAssertions(ctx context.Context, resp *saml.Response, dec Decrypter, state *ValidationState) []*saml.Assertion {
	combined := append([]*saml.Assertion{}, resp.Assertions...)
	if dec == nil {
		if len(resp.EncryptedAssertions) > 0 {
			state.warn("response carries %d encrypted assertion(s) but no decrypter is configured", len(resp.EncryptedAssertions))
		}
		return combined
	}
	for i, enc := range resp.EncryptedAssertions {
		assertion, err := dec.DecryptAssertion(ctx, enc)
		if err != nil {
			state.warn("skipping encrypted assertion %d: decryption failed: %v", i, err)
			continue
		}
		combined = append(combined, assertion)
	}
	return combined
}

// decryptID returns the decrypted name id, or nil when enc or the decrypter
// is nil. Errors are folded into a warning by the caller, which has the
// context to phrase it.
func decryptID(ctx context.Context, enc *saml.EncryptedID, dec Decrypter) (*saml.NameID, error) {
	if enc == nil || dec == nil {
		return nil, nil
	}
	return dec.DecryptNameID(ctx, enc)
}

// decryptAttributes decrypts each EncryptedAttribute independently with the
// same skip-on-failure, warn policy as decryptAssertions.
func decryptAttributes(ctx context.Context, stmt *saml.AttributeStatement, dec Decrypter, state *ValidationState) []saml.Attribute {
	attrs := append([]saml.Attribute{}, stmt.Attributes...)
	if dec == nil {
		if len(stmt.EncryptedAttributes) > 0 {
			state.warn("attribute statement carries %d encrypted attribute(s) but no decrypter is configured", len(stmt.EncryptedAttributes))
		}
		return attrs
	}
	for i, enc := range stmt.EncryptedAttributes {
		attr, err := dec.DecryptAttribute(ctx, enc)
		if err != nil {
			state.warn("skipping encrypted attribute %d: decryption failed: %v", i, err)
			continue
		}
		attrs = append(attrs, *attr)
	}
	return attrs
}
