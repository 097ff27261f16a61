package ssocore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saml2validator/ssoval/internal/saml"
)

const (
	testIdPEntityID = "https://idp.example.org/saml/metadata"
	testSPEntityID  = "https://sp.example.com/saml/metadata"
	testACSURL      = "https://sp.example.com/saml/acs"
)

type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	entities []string
	err      error
}

func (e *fakeEngine) Validate(_ context.Context, elementID string, expectedEntityID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, elementID)
	e.entities = append(e.entities, expectedEntityID)
	return e.err
}

type fakeProvider struct {
	engine   *fakeEngine
	buildErr error
	rawSeen  []byte
}

func (p *fakeProvider) Build(rawXML []byte) (SignatureTrustEngine, error) {
	p.rawSeen = rawXML
	if p.buildErr != nil {
		return nil, p.buildErr
	}
	return p.engine, nil
}

type fakeReplayCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	err  error
}

func newFakeReplayCache() *fakeReplayCache {
	return &fakeReplayCache{seen: make(map[string]time.Time)}
}

func (c *fakeReplayCache) Check(_ context.Context, scope string, id string, expiresAt time.Time) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := scope + "|" + id
	if _, ok := c.seen[key]; ok {
		return false, nil
	}
	c.seen[key] = expiresAt
	return true, nil
}

type fakeSentStore struct {
	messages map[string]*SentMessage
}

func (s *fakeSentStore) Get(_ context.Context, id string) (*SentMessage, bool, error) {
	msg, ok := s.messages[id]
	return msg, ok, nil
}

type fakeLogoutHandler struct {
	keys []string
}

func (h *fakeLogoutHandler) RecordSession(_ context.Context, key string) error {
	h.keys = append(h.keys, key)
	return nil
}

type fakeDecrypter struct {
	assertion *saml.Assertion
	nameID    *saml.NameID
	attribute *saml.Attribute
	err       error
}

func (d *fakeDecrypter) DecryptAssertion(_ context.Context, _ *saml.EncryptedAssertion) (*saml.Assertion, error) {
	return d.assertion, d.err
}

func (d *fakeDecrypter) DecryptNameID(_ context.Context, _ *saml.EncryptedID) (*saml.NameID, error) {
	return d.nameID, d.err
}

func (d *fakeDecrypter) DecryptAttribute(_ context.Context, _ *saml.EncryptedAttribute) (*saml.Attribute, error) {
	return d.attribute, d.err
}

// testConfig builds a permissive baseline: signatures off, authenticated
// peer, no optional collaborators. Individual tests tighten what they need.
func testConfig() *ValidationConfig {
	return &ValidationConfig{
		AllSignatureValidationOff: true,
		MaxAuthnLifetimeSeconds:   300,
		ClockSkewSeconds:          180,
		SelfEntityID:              testSPEntityID,
		Endpoint: Endpoint{
			Location: testACSURL,
			Binding:  saml.BindingHTTPPost,
		},
		Peer:  PeerEntity{EntityID: testIdPEntityID, Authenticated: true},
		Scope: "acs",
	}
}

func testAssertion() *saml.Assertion {
	now := saml.TimeNow()
	return &saml.Assertion{
		ID:           saml.GenerateID(),
		Version:      "2.0",
		IssueInstant: now,
		Issuer:       &saml.Issuer{Value: testIdPEntityID},
		Subject: &saml.Subject{
			NameID: &saml.NameID{
				Format: saml.NameIDFormatEmail,
				Value:  "user@example.com",
			},
			SubjectConfirmations: []*saml.SubjectConfirmation{{
				Method: saml.SubjectConfirmationMethodBearer,
				SubjectConfirmationData: &saml.SubjectConfirmationData{
					NotOnOrAfter: saml.TimeIn(5 * time.Minute),
					Recipient:    testACSURL,
				},
			}},
		},
		Conditions: &saml.Conditions{
			NotBefore:    now,
			NotOnOrAfter: saml.TimeIn(5 * time.Minute),
			AudienceRestrictions: []*saml.AudienceRestriction{{
				Audience: []string{testSPEntityID},
			}},
		},
		AuthnStatements: []*saml.AuthnStatement{{
			AuthnInstant: now,
			SessionIndex: "sess-1",
			AuthnContext: &saml.AuthnContext{
				AuthnContextClassRef: saml.AuthnContextPasswordProtectedTransport,
			},
		}},
	}
}

func testResponse(assertions ...*saml.Assertion) *saml.Response {
	resp := saml.NewResponse(testIdPEntityID, testACSURL, "", true)
	resp.Assertions = assertions
	return resp
}

func TestValidateHappyPath(t *testing.T) {
	a := testAssertion()
	a.AttributeStatements = []*saml.AttributeStatement{{
		Attributes: []saml.Attribute{{
			Name:            "displayName",
			AttributeValues: []saml.AttributeValue{{Value: "Test User"}},
		}},
	}}
	resp := testResponse(a)
	resp.InResponseTo = "req-1"

	replay := newFakeReplayCache()
	logoutHandler := &fakeLogoutHandler{}
	cfg := testConfig()
	cfg.ReplayCache = replay
	cfg.LogoutHandler = logoutHandler
	cfg.SentMessages = &fakeSentStore{messages: map[string]*SentMessage{
		"req-1": {Kind: SentAuthnRequest, AuthnRequest: &saml.AuthnRequest{
			ID:                          "req-1",
			AssertionConsumerServiceURL: testACSURL,
			ProtocolBinding:             saml.BindingHTTPPost,
		}},
	}}

	cred, state, err := Validate(context.Background(), resp, nil, cfg)
	require.NoError(t, err)
	require.NotNil(t, cred)

	assert.Equal(t, "user@example.com", cred.NameID.Value)
	assert.Equal(t, saml.NameIDFormatEmail, cred.NameID.Format)
	assert.Equal(t, testIdPEntityID, cred.IssuerEntityID)
	assert.Equal(t, "sess-1", cred.SessionIndex)
	assert.Equal(t, "req-1", cred.InResponseTo)
	assert.Equal(t, []string{saml.AuthnContextPasswordProtectedTransport}, cred.AuthnContextClassRefs)
	assert.Equal(t, []string{"Test User"}, cred.Attributes["displayName"])
	assert.Equal(t, []string{testSPEntityID}, cred.Conditions.Audiences)

	assert.Equal(t, []string{"sess-1|user@example.com"}, logoutHandler.keys)
	assert.Same(t, a, state.SubjectAssertion)
	assert.NotNil(t, state.OriginalRequest)
	assert.NotEmpty(t, state.Trace)
}

func TestValidateNameIDAttributeOverride(t *testing.T) {
	a := testAssertion()
	a.AttributeStatements = []*saml.AttributeStatement{{
		Attributes: []saml.Attribute{{
			Name:            "uid",
			AttributeValues: []saml.AttributeValue{{Value: "u-42"}},
		}},
	}}
	cfg := testConfig()
	cfg.NameIDAttribute = "uid"

	cred, _, err := Validate(context.Background(), testResponse(a), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "u-42", cred.NameID.Value)
}

func TestValidateNameIDAttributeFallsBackToSubject(t *testing.T) {
	cfg := testConfig()
	cfg.NameIDAttribute = "uid" // not present in the assertion

	cred, _, err := Validate(context.Background(), testResponse(testAssertion()), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", cred.NameID.Value)
}

func TestValidateTrustEngineBuildFailure(t *testing.T) {
	cfg := testConfig()
	cfg.AllSignatureValidationOff = false
	cfg.TrustEngineProvider = &fakeProvider{buildErr: errors.New("bad document")}

	_, _, err := Validate(context.Background(), testResponse(testAssertion()), []byte("<xml/>"), cfg)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SignatureValidation, verr.Kind)
}

func TestValidateVerifiesResponseAndAssertionSignatures(t *testing.T) {
	a := testAssertion()
	a.Signature = &saml.Signature{}
	resp := testResponse(a)
	resp.Signature = &saml.Signature{}

	engine := &fakeEngine{}
	cfg := testConfig()
	cfg.AllSignatureValidationOff = false
	cfg.WantsResponsesSigned = true
	cfg.WantsAssertionsSigned = true
	cfg.TrustEngineProvider = &fakeProvider{engine: engine}

	raw := []byte("<raw-response/>")
	_, _, err := Validate(context.Background(), resp, raw, cfg)
	require.NoError(t, err)

	require.Len(t, engine.calls, 2)
	assert.Equal(t, []string{resp.ID, a.ID}, engine.calls)
	assert.Equal(t, []string{testIdPEntityID, testIdPEntityID}, engine.entities)
}

func TestValidateSignatureVerificationFailure(t *testing.T) {
	a := testAssertion()
	a.Signature = &saml.Signature{}

	cfg := testConfig()
	cfg.AllSignatureValidationOff = false
	cfg.TrustEngineProvider = &fakeProvider{engine: &fakeEngine{err: errors.New("digest mismatch")}}

	_, _, err := Validate(context.Background(), testResponse(a), nil, cfg)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SignatureValidation, verr.Kind)
}

func TestValidateLogoutHandlerErrorIsIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.LogoutHandler = failingLogoutHandler{}

	_, _, err := Validate(context.Background(), testResponse(testAssertion()), nil, cfg)
	require.NoError(t, err)
}

type failingLogoutHandler struct{}

func (failingLogoutHandler) RecordSession(context.Context, string) error {
	return fmt.Errorf("bookkeeping store down")
}
