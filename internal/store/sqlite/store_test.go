package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saml2validator/ssoval/internal/saml"
	"github.com/saml2validator/ssoval/internal/ssocore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "ssoval.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRunsMigrationTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssoval.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Re-opening an existing database must not fail on the schema.
	second, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestReplayCheckAcceptsFirstRejectsSecond(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	fresh, err := s.Check(ctx, "acs", "_id-1", expiry)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.Check(ctx, "acs", "_id-1", expiry)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestReplayCheckScopesAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	_, err := s.Check(ctx, "acs", "_id-1", expiry)
	require.NoError(t, err)

	fresh, err := s.Check(ctx, "slo", "_id-1", expiry)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestReplayCheckExpiredEntryAcceptedAgain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Check(ctx, "acs", "_id-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	fresh, err := s.Check(ctx, "acs", "_id-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestReplayEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssoval.db")
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Check(ctx, "acs", "_id-1", expiry)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	fresh, err := reopened.Check(ctx, "acs", "_id-1", expiry)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSentAuthnRequestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	req := saml.NewAuthnRequest(
		"https://sp.example.com/saml/metadata",
		"https://idp.example.org/saml/sso",
		"https://sp.example.com/saml/acs",
	)
	require.NoError(t, s.PutAuthnRequest(ctx, req))

	msg, ok, err := s.Get(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ssocore.SentAuthnRequest, msg.Kind)
	require.NotNil(t, msg.AuthnRequest)
	assert.Equal(t, req.ID, msg.AuthnRequest.ID)
	assert.Equal(t, req.AssertionConsumerServiceURL, msg.AuthnRequest.AssertionConsumerServiceURL)
	assert.Equal(t, req.ProtocolBinding, msg.AuthnRequest.ProtocolBinding)
}

func TestSentLogoutRequestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	req := &saml.LogoutRequest{ID: saml.GenerateID(), Version: "2.0"}
	require.NoError(t, s.PutLogoutRequest(ctx, req))

	msg, ok, err := s.Get(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ssocore.SentLogoutRequest, msg.Kind)
	require.NotNil(t, msg.LogoutRequest)
	assert.Equal(t, req.ID, msg.LogoutRequest.ID)
}

func TestGetUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get(context.Background(), "_missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutSameIDReplacesMessage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	req := &saml.AuthnRequest{ID: "_req-1", AssertionConsumerServiceURL: "https://sp.example.com/first"}
	require.NoError(t, s.PutAuthnRequest(ctx, req))

	req.AssertionConsumerServiceURL = "https://sp.example.com/second"
	require.NoError(t, s.PutAuthnRequest(ctx, req))

	msg, ok, err := s.Get(ctx, "_req-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://sp.example.com/second", msg.AuthnRequest.AssertionConsumerServiceURL)
}
