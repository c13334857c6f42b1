package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres SQLSTATE for a unique-constraint hit.
const uniqueViolation = "23505"

// PostgresStore is the production Credential Store, backed by a pooled
// pgx connection. The users table is expected to carry a unique
// constraint on email; PostgresStore translates a violation into
// ErrConflict rather than leaning on an application-side existence check,
// closing the TOCTOU window concurrent sign-ups would otherwise hit:
// under a race, exactly one insert succeeds and the other is translated
// to Conflict.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore dials dsn and returns a ready PostgresStore. The
// caller owns the returned pool's lifetime via Close.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, password_hash, is_verified
		FROM users WHERE email = $1`, email)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsVerified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Insert(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsVerified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("store: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateVerified(ctx context.Context, id string, verified bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return fmt.Errorf("store: update verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
