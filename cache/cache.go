// Package cache implements the Token Cache: the ephemeral, per-identity
// key/value store backing both the `jwt:<email>` and `verify:<key>`
// families. The cache is the authoritative revocation oracle — a
// cryptographically valid token whose entry is missing or mismatched is
// treated as revoked.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has no live entry (either
// never written or evicted by TTL).
var ErrNotFound = errors.New("cache: not found")

// ErrUnavailable wraps any underlying transport failure so callers never
// depend on a specific driver's error type.
var ErrUnavailable = errors.New("cache: unavailable")

// Cache is the Token Cache contract. Deletions must be observable before
// the next Get returns for the same key — callers rely on linearizable
// per-key semantics to implement single-use tokens.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// CompareAndDelete atomically deletes key iff its current value
	// byte-equals expected, returning whether the delete happened. This is
	// the refresh-rotation primitive: it lets concurrent refresh-token
	// calls for the same email race safely — at most one caller observes
	// ok=true for a given cached value.
	CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error)
}

// Key builders for the two key families the cache stores.
func JWTKey(email string) string {
	return "jwt:" + email
}

func VerifyKey(key string) string {
	return "verify:" + key
}
