package credsqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmall/storefront-auth/internal/autherr"
	credsqlite "github.com/openmall/storefront-auth/internal/credstore/sqlite"
)

func openStore(t *testing.T) *credsqlite.Store {
	t.Helper()

	ctx := t.Context()

	store, err := credsqlite.Open(ctx, filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	return store
}

func TestStore(t *testing.T) {
	ctx := t.Context()

	t.Run("put and get survive reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.db")

		store, err := credsqlite.Open(ctx, path)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, "k", "v"))
		require.NoError(t, store.Close(ctx))

		reopened, err := credsqlite.Open(ctx, path)
		require.NoError(t, err)
		defer reopened.Close(ctx)

		v, err := reopened.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		store := openStore(t)

		require.NoError(t, store.Put(ctx, "k", "v1"))
		require.NoError(t, store.Put(ctx, "k", "v2"))

		v, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := openStore(t).Get(ctx, "missing")
		assert.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		store := openStore(t)

		require.NoError(t, store.Put(ctx, "k", "v"))
		require.NoError(t, store.Remove(ctx, "k"))

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		store := openStore(t)

		require.NoError(t, store.Put(ctx, "a", "1"))
		require.NoError(t, store.PutTransient(ctx, "b", "2", time.Hour))
		require.NoError(t, store.Clear(ctx))

		_, err := store.Get(ctx, "a")
		assert.ErrorIs(t, err, autherr.ErrNotFound)
		_, err = store.Get(ctx, "b")
		assert.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("transient entry lapses on read", func(t *testing.T) {
		store := openStore(t)

		require.NoError(t, store.PutTransient(ctx, "k", "v", 20*time.Millisecond))

		v, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)

		time.Sleep(50 * time.Millisecond)

		_, err = store.Get(ctx, "k")
		assert.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("put clears a previous TTL", func(t *testing.T) {
		store := openStore(t)

		require.NoError(t, store.PutTransient(ctx, "k", "v", 20*time.Millisecond))
		require.NoError(t, store.Put(ctx, "k", "v"))

		time.Sleep(50 * time.Millisecond)

		v, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})
}
