// Package store provides the default in-memory ssocore.ReplayCache and
// ssocore.SentMessageStore, plus a persistent sqlite-backed alternative in
// the store/sqlite subpackage.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/saml2validator/ssoval/internal/saml"
	"github.com/saml2validator/ssoval/internal/ssocore"
)

// MemoryReplayCache is a mutex-guarded map keyed by (scope, id), swept
// lazily on every Check call rather than by a background goroutine.
type MemoryReplayCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryReplayCache() *MemoryReplayCache {
	return &MemoryReplayCache{seen: make(map[string]time.Time)}
}

func (c *MemoryReplayCache) Check(ctx context.Context, scope string, id string, expiresAt time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	key := scope + "|" + id
	if expiry, ok := c.seen[key]; ok && expiry.After(now) {
		return false, nil
	}
	c.seen[key] = expiresAt
	c.sweep(now)
	return true, nil
}

// sweep drops expired entries so the map doesn't grow unbounded across a
// long-lived process. Called with c.mu already held.
func (c *MemoryReplayCache) sweep(now time.Time) {
	for key, expiry := range c.seen {
		if !expiry.After(now) {
			delete(c.seen, key)
		}
	}
}

// MemorySentMessageStore records outbound requests by id for InResponseTo
// lookups. Entries never expire on their own; callers that care about
// unbounded growth should prefer the sqlite-backed store with its own
// pruning query.
type MemorySentMessageStore struct {
	mu       sync.RWMutex
	messages map[string]*ssocore.SentMessage
}

func NewMemorySentMessageStore() *MemorySentMessageStore {
	return &MemorySentMessageStore{messages: make(map[string]*ssocore.SentMessage)}
}

func (s *MemorySentMessageStore) PutAuthnRequest(_ context.Context, req *saml.AuthnRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[req.ID] = &ssocore.SentMessage{Kind: ssocore.SentAuthnRequest, AuthnRequest: req}
	return nil
}

func (s *MemorySentMessageStore) PutLogoutRequest(_ context.Context, req *saml.LogoutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[req.ID] = &ssocore.SentMessage{Kind: ssocore.SentLogoutRequest, LogoutRequest: req}
	return nil
}

func (s *MemorySentMessageStore) Get(ctx context.Context, id string) (*ssocore.SentMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	return msg, ok, nil
}
