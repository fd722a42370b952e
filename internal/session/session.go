// Package session defines the session model and the pure policy functions
// gating access to protected views.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
)

// Session is the bundle representing an authenticated client identity.
// Either every field is persisted or none is; a zero ExpiresAt means the
// backend supplied no lifetime for the tokens.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Save persists the session atomically from the caller's point of view:
// if any write fails, the previously stored token fields are restored so
// that no partial session is left behind.
func Save(ctx context.Context, store credstore.Store, s Session) error {
	prior := snapshot(ctx, store)

	if err := writeAll(ctx, store, s); err != nil {
		restore(ctx, store, prior)
		return err
	}

	return nil
}

// Load reads the persisted session. It returns autherr.ErrNotFound when no
// access token is stored.
func Load(ctx context.Context, store credstore.Store) (Session, error) {
	accessToken, err := store.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		return Session{}, err
	}

	refreshToken, err := store.Get(ctx, credstore.KeyRefreshToken)
	if err != nil && !errors.Is(err, autherr.ErrNotFound) {
		return Session{}, err
	}

	s := Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if raw, err := store.Get(ctx, credstore.KeyTokenExpiry); err == nil {
		if t, ok := decodeExpiry(raw); ok {
			s.ExpiresAt = t
		}
	}

	return s, nil
}

// Clear removes the session token fields. Logout calls this; expiry never
// does, because expiry is advisory and checked on read only.
func Clear(ctx context.Context, store credstore.Store) error {
	for _, key := range tokenKeys() {
		if err := store.Remove(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// IsExpired reports whether the stored expiry instant has passed. No
// recorded expiry counts as expired.
func IsExpired(ctx context.Context, store credstore.Store) bool {
	raw, err := store.Get(ctx, credstore.KeyTokenExpiry)
	if err != nil {
		return true
	}

	expiry, ok := decodeExpiry(raw)
	if !ok {
		return true
	}

	return time.Now().After(expiry)
}

// IsAuthenticated reports whether an access token is present and not
// expired. It is re-derived from store contents on every call; nothing is
// cached.
func IsAuthenticated(ctx context.Context, store credstore.Store) bool {
	if _, err := store.Get(ctx, credstore.KeyAccessToken); err != nil {
		return false
	}

	return !IsExpired(ctx, store)
}

func writeAll(ctx context.Context, store credstore.Store, s Session) error {
	if err := store.Put(ctx, credstore.KeyAccessToken, s.AccessToken); err != nil {
		return err
	}
	if err := store.Put(ctx, credstore.KeyRefreshToken, s.RefreshToken); err != nil {
		return err
	}

	if s.ExpiresAt.IsZero() {
		// No lifetime known; remove any stale expiry left by a previous
		// session so the three fields stay mutually consistent.
		return store.Remove(ctx, credstore.KeyTokenExpiry)
	}

	return store.Put(ctx, credstore.KeyTokenExpiry, encodeExpiry(s.ExpiresAt))
}

func snapshot(ctx context.Context, store credstore.Store) map[string]string {
	prior := make(map[string]string)
	for _, key := range tokenKeys() {
		if v, err := store.Get(ctx, key); err == nil {
			prior[key] = v
		}
	}

	return prior
}

func restore(ctx context.Context, store credstore.Store, prior map[string]string) {
	for _, key := range tokenKeys() {
		if v, ok := prior[key]; ok {
			_ = store.Put(ctx, key, v)
			continue
		}
		_ = store.Remove(ctx, key)
	}
}

func tokenKeys() []string {
	return []string{credstore.KeyAccessToken, credstore.KeyRefreshToken, credstore.KeyTokenExpiry}
}

func encodeExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func decodeExpiry(raw string) (time.Time, bool) {
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.UnixMilli(millis), true
}
