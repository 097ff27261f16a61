package trustengine

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/saml2validator/ssoval/internal/ssocore"
)

// Provider builds a ssocore.SignatureTrustEngine bound to one raw response
// document. It holds only the (reusable, thread-safe) trust material; every
// Build call gets its own etree.Document so canonicalization runs against
// the exact bytes the peer sent.
type Provider struct {
	Certs CertificateSource
	Clock *dsig.Clock // nil uses the system clock
}

func NewProvider(certs CertificateSource) *Provider {
	return &Provider{Certs: certs}
}

func (p *Provider) Build(rawXML []byte) (ssocore.SignatureTrustEngine, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawXML); err != nil {
		return nil, fmt.Errorf("trustengine: parse raw response document: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("trustengine: raw response document has no root element")
	}
	return &engine{doc: doc, certs: p.Certs, clock: p.Clock}, nil
}

type engine struct {
	doc   *etree.Document
	certs CertificateSource
	clock *dsig.Clock
}

// Validate re-locates elementID inside the retained document and checks its
// enveloped ds:Signature against expectedEntityID's trusted certificates.
func (e *engine) Validate(ctx context.Context, elementID string, expectedEntityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	el := findByID(e.doc.Root(), elementID)
	if el == nil {
		return fmt.Errorf("trustengine: element with ID %q not found in document", elementID)
	}

	certs, err := e.certs.CertificatesFor(expectedEntityID)
	if err != nil {
		return err
	}

	store := &dsig.MemoryX509CertificateStore{Roots: certs}
	vctx := dsig.NewDefaultValidationContext(store)
	if e.clock != nil {
		vctx.Clock = e.clock
	}

	if _, err := vctx.Validate(el); err != nil {
		return fmt.Errorf("trustengine: signature validation failed: %w", err)
	}
	return nil
}

// findByID walks the element tree looking for an ID attribute match. SAML
// signs Response and Assertion elements by their own ID attribute, which is
// never namespaced, so a plain attribute-key comparison is sufficient.
func findByID(el *etree.Element, id string) *etree.Element {
	if el == nil {
		return nil
	}
	if attr := el.SelectAttr("ID"); attr != nil && attr.Value == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}
