// Package sqlite implements ssocore.ReplayCache and ssocore.SentMessageStore
// on top of database/sql, using modernc.org/sqlite by default (see
// cgo_driver.go for the CGO alternative selected by build tag).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/saml2validator/ssoval/internal/saml"
	"github.com/saml2validator/ssoval/internal/ssocore"
)

const schema = `
CREATE TABLE IF NOT EXISTS replay_seen (
	scope      TEXT NOT NULL,
	id         TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	PRIMARY KEY (scope, id)
);

CREATE TABLE IF NOT EXISTS sent_messages (
	id         TEXT PRIMARY KEY,
	kind       INTEGER NOT NULL,
	raw_xml    BLOB NOT NULL,
	created_at DATETIME NOT NULL
);
`

// Store is a single sqlite-backed implementation of both ReplayCache and
// SentMessageStore; one file, one connection pool, single-writer.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a sqlite database at path and runs its
// migration. WAL mode and a single open connection mirror sqlite's
// single-writer constraint instead of fighting it with a larger pool.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Check(ctx context.Context, scope string, id string, expiresAt time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: begin replay check: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var existingExpiry time.Time
	err = tx.QueryRowContext(ctx, `SELECT expires_at FROM replay_seen WHERE scope = ? AND id = ?`, scope, id).Scan(&existingExpiry)
	switch {
	case err == sql.ErrNoRows:
		// fall through to insert
	case err != nil:
		return false, fmt.Errorf("sqlite: lookup replay entry: %w", err)
	default:
		if existingExpiry.After(now) {
			return false, nil
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO replay_seen (scope, id, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(scope, id) DO UPDATE SET expires_at = excluded.expires_at`,
		scope, id, expiresAt.UTC()); err != nil {
		return false, fmt.Errorf("sqlite: record replay entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM replay_seen WHERE expires_at <= ?`, now); err != nil {
		return false, fmt.Errorf("sqlite: prune expired replay entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: commit replay check: %w", err)
	}
	return true, nil
}

func (s *Store) PutAuthnRequest(ctx context.Context, req *saml.AuthnRequest) error {
	return s.putSentMessage(ctx, req.ID, ssocore.SentAuthnRequest, req)
}

func (s *Store) PutLogoutRequest(ctx context.Context, req *saml.LogoutRequest) error {
	return s.putSentMessage(ctx, req.ID, ssocore.SentLogoutRequest, req)
}

func (s *Store) putSentMessage(ctx context.Context, id string, kind ssocore.SentMessageKind, msg interface{}) error {
	raw, err := xml.Marshal(msg)
	if err != nil {
		return fmt.Errorf("sqlite: marshal sent message: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sent_messages (id, kind, raw_xml, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, raw_xml = excluded.raw_xml`,
		id, int(kind), raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite: insert sent message: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*ssocore.SentMessage, bool, error) {
	var raw []byte
	var kind int
	err := s.db.QueryRowContext(ctx, `SELECT kind, raw_xml FROM sent_messages WHERE id = ?`, id).Scan(&kind, &raw)
	switch {
	case err == sql.ErrNoRows:
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("sqlite: lookup sent message: %w", err)
	}

	msg := &ssocore.SentMessage{Kind: ssocore.SentMessageKind(kind)}
	switch msg.Kind {
	case ssocore.SentAuthnRequest:
		var req saml.AuthnRequest
		if err := xml.Unmarshal(raw, &req); err != nil {
			return nil, false, fmt.Errorf("sqlite: unmarshal sent AuthnRequest: %w", err)
		}
		msg.AuthnRequest = &req
	case ssocore.SentLogoutRequest:
		var req saml.LogoutRequest
		if err := xml.Unmarshal(raw, &req); err != nil {
			return nil, false, fmt.Errorf("sqlite: unmarshal sent LogoutRequest: %w", err)
		}
		msg.LogoutRequest = &req
	default:
		return nil, false, fmt.Errorf("sqlite: unknown sent message kind %d for id %s", kind, id)
	}
	return msg, true, nil
}
