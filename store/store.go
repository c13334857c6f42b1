// Package store implements the Credential Store: the persistent
// email-to-user mapping. A Postgres-backed implementation and an
// in-memory variant (used by tests) both satisfy the same contract.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindByEmail when no user has that email.
var ErrNotFound = errors.New("store: user not found")

// ErrConflict is returned by Insert when the email already exists.
var ErrConflict = errors.New("store: email already exists")

// User is the store's view of a persisted identity record.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsVerified   bool
}

// Store is the Credential Store contract. No other query shape is
// needed by the Identity Service.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, u *User) error
	UpdateVerified(ctx context.Context, id string, verified bool) error
}
