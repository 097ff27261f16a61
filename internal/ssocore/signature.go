package ssocore

import (
	"context"

	"github.com/saml2validator/ssoval/internal/saml"
)

// verify fails when sig does not validate against the peer's trust material
// for expectedEntityID. elementID identifies which element (response or
// assertion) the engine should re-locate in its retained document.
func verify(ctx context.Context, engine SignatureTrustEngine, sig *saml.Signature, elementID, expectedEntityID string) *ValidationError {
	if sig == nil {
		return newErr(SignatureValidation, "signature is absent", "XML-DSig Core", "")
	}
	if engine == nil {
		return newErr(SignatureValidation, "no signature trust engine configured", "XML-DSig Core", "")
	}
	if err := engine.Validate(ctx, elementID, expectedEntityID); err != nil {
		return wrapf(SignatureValidation, "XML-DSig Core Section 3.2", err,
			"signature verification failed for %s against %s", elementID, expectedEntityID)
	}
	return nil
}

// verifyIfPresent is a no-op when sig is nil; callers enforce mandatoriness
// themselves before calling it.
func verifyIfPresent(ctx context.Context, engine SignatureTrustEngine, sig *saml.Signature, elementID, expectedEntityID string) *ValidationError {
	if sig == nil {
		return nil
	}
	return verify(ctx, engine, sig, elementID, expectedEntityID)
}
