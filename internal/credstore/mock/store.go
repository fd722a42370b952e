package credmock

import (
	"context"
	"time"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
)

type StoreOption func(*Store)

// Store is an in-memory credential store with fault injection for tests.
type Store struct {
	values map[string]string

	putErr, putTransientErr, getErr, removeErr, clearErr error

	// PutCalls counts successful writes, transient ones included.
	PutCalls int
}

func WithValue(key, value string) StoreOption {
	return func(s *Store) { s.values[key] = value }
}

func WithPutError(err error) StoreOption {
	return func(s *Store) { s.putErr = err }
}

func WithPutTransientError(err error) StoreOption {
	return func(s *Store) { s.putTransientErr = err }
}

func WithGetError(err error) StoreOption {
	return func(s *Store) { s.getErr = err }
}

func WithRemoveError(err error) StoreOption {
	return func(s *Store) { s.removeErr = err }
}

func WithClearError(err error) StoreOption {
	return func(s *Store) { s.clearErr = err }
}

var _ = credstore.Store(&Store{})

func New(opts ...StoreOption) *Store {
	s := &Store{
		values: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

func (s *Store) Put(_ context.Context, key, value string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.values[key] = value
	s.PutCalls++

	return nil
}

func (s *Store) PutTransient(_ context.Context, key, value string, _ time.Duration) error {
	if s.putTransientErr != nil {
		return s.putTransientErr
	}
	s.values[key] = value
	s.PutCalls++

	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	if v, ok := s.values[key]; ok {
		return v, nil
	}

	return "", autherr.ErrNotFound
}

func (s *Store) Remove(_ context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.values, key)

	return nil
}

func (s *Store) Clear(_ context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.values = make(map[string]string)

	return nil
}

// Snapshot copies the current contents; tests use it to assert that a
// failed flow left the store untouched.
func (s *Store) Snapshot() map[string]string {
	snap := make(map[string]string, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}

	return snap
}
