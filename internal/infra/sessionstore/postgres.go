package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/kundali-web/internal/domain/session"
)

// PostgresStore persists sessions in a kundali_sessions table:
//
//	CREATE TABLE kundali_sessions (
//	    id         TEXT PRIMARY KEY,
//	    payload    JSONB NOT NULL,
//	    expires_at TIMESTAMPTZ
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a new store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// EnsureSchema creates the sessions table when missing.
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kundali_sessions (
			id         TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			expires_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure kundali_sessions: %w", err)
	}
	return nil
}

// Get fetches a live session by id.
func (r *PostgresStore) Get(ctx context.Context, id string) (session.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT payload
		FROM kundali_sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)
	`, id, r.now())
	return scanSession(row)
}

// Save upserts the session row.
func (r *PostgresStore) Save(ctx context.Context, sess session.Session, ttl time.Duration) error {
	return r.save(ctx, r.pool, sess, ttl)
}

// Update locks the row for the duration of fn.
func (r *PostgresStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(*session.Session) error) (session.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return session.Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT payload
		FROM kundali_sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)
		FOR UPDATE
	`, id, r.now())
	current, err := scanSession(row)
	if errors.Is(err, session.ErrNotFound) {
		current = session.Session{ID: id}
	} else if err != nil {
		return session.Session{}, err
	}
	if err := fn(&current); err != nil {
		return session.Session{}, err
	}
	if err := r.save(ctx, tx, current, ttl); err != nil {
		return session.Session{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return session.Session{}, err
	}
	return current, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *PostgresStore) save(ctx context.Context, db execer, sess session.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	var expires *time.Time
	if ttl > 0 {
		exp := r.now().Add(ttl)
		expires = &exp
	}
	_, err = db.Exec(ctx, `
		INSERT INTO kundali_sessions (id, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at
	`, sess.ID, payload, expires)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}
	var out session.Session
	if err := json.Unmarshal(payload, &out); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return out, nil
}

var _ session.Store = (*PostgresStore)(nil)
