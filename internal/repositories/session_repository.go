package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/socialgraph/backend/internal/auth"
	"github.com/socialgraph/backend/internal/db"
)

// PostgresSessionStore persists refresh tokens to PostgreSQL.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save stores or replaces a refresh token and drops the user's expired
// tokens in the same transaction.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            DELETE FROM sessions
            WHERE user_id = $1 AND expires_at <= NOW()
        `, session.UserID); err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}

		_, err := tx.Exec(ctx, `
            INSERT INTO sessions (refresh_token, user_id, expires_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (refresh_token)
            DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at
        `, session.RefreshToken, session.UserID, session.ExpiresAt.UTC())
		return mapPgError("upsert session", err)
	})
}

// Find loads a session by its refresh token. Expiry is left to the caller.
func (s *PostgresSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT refresh_token, user_id, expires_at
        FROM sessions
        WHERE refresh_token = $1
    `, refreshToken)
	if err != nil {
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}

	session, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[auth.Session])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("scan session: %w", err)
	}

	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

// Delete removes a session by its refresh token.
func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
