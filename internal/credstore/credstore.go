// Package credstore declares the credential store contract: flat key/value
// persistence of session artifacts, with interchangeable drivers.
package credstore

import (
	"context"
	"time"
)

// Well-known keys. These are the only entries the authentication flows
// read or write; the store itself attaches no meaning to them.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyTokenExpiry  = "tokenExpiry" // epoch millis, stored as string
	KeyOAuthState   = "naver_oauth_state"
)

// Store is pure storage: no validation, no interpretation of values.
// Get returns autherr.ErrNotFound (possibly wrapped) when the key is
// absent or its TTL has lapsed.
type Store interface {
	Put(ctx context.Context, key, value string) error
	// PutTransient stores a value that disappears after ttl. Used for the
	// single-use anti-forgery state of an outstanding redirect login.
	PutTransient(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
	// Clear removes every entry, returning the store to its initial state.
	Clear(ctx context.Context) error
}
