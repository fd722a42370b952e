package session_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
	credmock "github.com/openmall/storefront-auth/internal/credstore/mock"
	"github.com/openmall/storefront-auth/internal/session"
)

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func TestSaveLoad(t *testing.T) {
	ctx := t.Context()

	t.Run("round-trips all fields", func(t *testing.T) {
		store := credmock.New()
		expiry := time.Now().Add(time.Hour).Truncate(time.Millisecond)

		err := session.Save(ctx, store, session.Session{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    expiry,
		})
		require.NoError(t, err)

		got, err := session.Load(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, "access", got.AccessToken)
		assert.Equal(t, "refresh", got.RefreshToken)
		assert.True(t, got.ExpiresAt.Equal(expiry))
	})

	t.Run("zero expiry removes a stale expiry entry", func(t *testing.T) {
		store := credmock.New(
			credmock.WithValue(credstore.KeyTokenExpiry, millis(time.Now().Add(time.Hour))),
		)

		err := session.Save(ctx, store, session.Session{AccessToken: "access", RefreshToken: "refresh"})
		require.NoError(t, err)

		_, err = store.Get(ctx, credstore.KeyTokenExpiry)
		assert.ErrorIs(t, err, autherr.ErrNotFound)

		got, err := session.Load(ctx, store)
		require.NoError(t, err)
		assert.True(t, got.ExpiresAt.IsZero())
	})

	t.Run("load without a session reports not found", func(t *testing.T) {
		_, err := session.Load(ctx, credmock.New())
		assert.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("load tolerates a missing refresh token", func(t *testing.T) {
		store := credmock.New(credmock.WithValue(credstore.KeyAccessToken, "access"))

		got, err := session.Load(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, "access", got.AccessToken)
		assert.Empty(t, got.RefreshToken)
	})
}

func TestSaveRollback(t *testing.T) {
	ctx := t.Context()

	t.Run("restores the prior session when a write fails mid-way", func(t *testing.T) {
		priorExpiry := millis(time.Now().Add(time.Hour))
		store := credmock.New(
			credmock.WithValue(credstore.KeyAccessToken, "old-access"),
			credmock.WithValue(credstore.KeyRefreshToken, "old-refresh"),
			credmock.WithValue(credstore.KeyTokenExpiry, priorExpiry),
			credmock.WithRemoveError(assert.AnError),
		)
		before := store.Snapshot()

		// Zero expiry makes the final step a Remove, which is rigged to fail
		// after the token writes already went through.
		err := session.Save(ctx, store, session.Session{AccessToken: "new-access", RefreshToken: "new-refresh"})
		require.Error(t, err)

		assert.Empty(t, cmp.Diff(before, store.Snapshot()))
	})

	t.Run("leaves the store untouched when the first write fails", func(t *testing.T) {
		store := credmock.New(
			credmock.WithValue(credstore.KeyAccessToken, "old-access"),
			credmock.WithValue(credstore.KeyRefreshToken, "old-refresh"),
			credmock.WithPutError(assert.AnError),
		)
		before := store.Snapshot()

		err := session.Save(ctx, store, session.Session{AccessToken: "new-access", RefreshToken: "new-refresh"})
		require.Error(t, err)

		assert.Empty(t, cmp.Diff(before, store.Snapshot()))
	})
}

func TestClear(t *testing.T) {
	ctx := t.Context()

	store := credmock.New(
		credmock.WithValue(credstore.KeyAccessToken, "access"),
		credmock.WithValue(credstore.KeyRefreshToken, "refresh"),
		credmock.WithValue(credstore.KeyTokenExpiry, millis(time.Now().Add(time.Hour))),
		credmock.WithValue(credstore.KeyOAuthState, "state"),
	)

	require.NoError(t, session.Clear(ctx, store))

	for _, key := range []string{credstore.KeyAccessToken, credstore.KeyRefreshToken, credstore.KeyTokenExpiry} {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, autherr.ErrNotFound, key)
	}

	// An outstanding redirect-login attempt is not a session field.
	v, err := store.Get(ctx, credstore.KeyOAuthState)
	require.NoError(t, err)
	assert.Equal(t, "state", v)
}

func TestIsExpired(t *testing.T) {
	ctx := t.Context()

	tests := []struct {
		name   string
		expiry string
		want   bool
	}{
		{name: "future expiry", expiry: millis(time.Now().Add(time.Hour)), want: false},
		{name: "past expiry", expiry: millis(time.Now().Add(-time.Hour)), want: true},
		{name: "unparseable expiry", expiry: "not-a-number", want: true},
		{name: "no expiry recorded", expiry: "", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var opts []credmock.StoreOption
			if tc.expiry != "" {
				opts = append(opts, credmock.WithValue(credstore.KeyTokenExpiry, tc.expiry))
			}

			assert.Equal(t, tc.want, session.IsExpired(ctx, credmock.New(opts...)))
		})
	}
}

func TestIsAuthenticated(t *testing.T) {
	ctx := t.Context()

	t.Run("token with future expiry", func(t *testing.T) {
		store := credmock.New(
			credmock.WithValue(credstore.KeyAccessToken, "access"),
			credmock.WithValue(credstore.KeyTokenExpiry, millis(time.Now().Add(time.Hour))),
		)
		assert.True(t, session.IsAuthenticated(ctx, store))
	})

	t.Run("token with past expiry", func(t *testing.T) {
		store := credmock.New(
			credmock.WithValue(credstore.KeyAccessToken, "access"),
			credmock.WithValue(credstore.KeyTokenExpiry, millis(time.Now().Add(-time.Hour))),
		)
		assert.False(t, session.IsAuthenticated(ctx, store))
	})

	t.Run("token without expiry", func(t *testing.T) {
		store := credmock.New(credmock.WithValue(credstore.KeyAccessToken, "access"))
		assert.False(t, session.IsAuthenticated(ctx, store))
	})

	t.Run("no token", func(t *testing.T) {
		assert.False(t, session.IsAuthenticated(ctx, credmock.New()))
	})
}
