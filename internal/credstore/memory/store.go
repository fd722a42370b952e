package credmemory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
)

const cleanupInterval = 10 * time.Minute

// Store keeps credentials in process memory. Nothing survives a restart,
// which makes it suitable for ephemeral runs and tests only.
type Store struct {
	cache *cache.Cache
}

var _ = credstore.Store(&Store{})

func New() *Store {
	return &Store{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *Store) Put(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *Store) PutTransient(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", autherr.ErrNotFound
	}

	return v.(string), nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.cache.Flush()
	return nil
}
