package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const createSessionsTable = `
	CREATE TABLE IF NOT EXISTS sessions (
		id         VARCHAR(64) NOT NULL PRIMARY KEY,
		data       JSON        NOT NULL,
		expires_at DATETIME(3) NOT NULL,
		INDEX idx_sessions_expires_at (expires_at)
	)`

const upsertSession = `
	INSERT INTO sessions (id, data, expires_at)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE
		data       = VALUES(data),
		expires_at = VALUES(expires_at)`

// MySQLStore keeps sessions in a MySQL table as JSON documents.
type MySQLStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewMySQLStore creates a MySQLStore over db.
func NewMySQLStore(db *sql.DB, timeout time.Duration) *MySQLStore {
	return &MySQLStore{db: db, timeout: timeout}
}

// EnsureTable creates the sessions table if it is missing.
func (s *MySQLStore) EnsureTable(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, createSessionsTable)
	return err
}

func (s *MySQLStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ? AND expires_at > ?`,
		id, time.Now().UTC(),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return decodeSession(id, data)
}

func (s *MySQLStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, upsertSession, sess.ID, data, sess.ExpiresAt.UTC())
	return err
}

func (s *MySQLStore) Destroy(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpired removes rows past their expiry.
func (s *MySQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func decodeSession(id string, data []byte) (*Session, error) {
	sess := &Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, err
	}
	sess.ID = id
	return sess, nil
}
