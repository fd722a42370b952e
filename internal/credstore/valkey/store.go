// Package credvalkey implements the credential store on a shared valkey
// instance, for deployments where several client processes (kiosks, shared
// terminals) operate on one credential context.
package credvalkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
)

var (
	ErrGet    = errors.New("getting credential from store")
	ErrSet    = errors.New("setting credential into store")
	ErrRemove = errors.New("removing credential from store")
	ErrClear  = errors.New("clearing credential store")
)

type Store struct {
	valkey valkey.Client
	prefix string
}

var _ = credstore.Store(&Store{})

func New(valkeyClient valkey.Client, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &Store{
		valkey: valkeyClient,
		prefix: prefix,
	}
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	cmd := s.valkey.B().Set().Key(s.key(key)).Value(value).Build()
	if err := s.valkey.Do(ctx, cmd).Error(); err != nil {
		return errors.Join(ErrSet, err)
	}

	return nil
}

func (s *Store) PutTransient(ctx context.Context, key, value string, ttl time.Duration) error {
	cmd := s.valkey.B().Set().Key(s.key(key)).Value(value).Ex(ttl).Build()
	if err := s.valkey.Do(ctx, cmd).Error(); err != nil {
		return errors.Join(ErrSet, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	bytes, err := s.valkey.Do(ctx, s.valkey.B().Get().Key(s.key(key)).Build()).AsBytes()
	if err != nil {
		valkeyErr, ok := valkey.IsValkeyErr(err)
		if ok && valkeyErr.IsNil() {
			return "", errors.Join(autherr.ErrNotFound, valkeyErr)
		}

		return "", errors.Join(ErrGet, err)
	}

	return string(bytes), nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(s.key(key)).Build()).Error(); err != nil {
		return errors.Join(ErrRemove, err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	match := s.key("*")
	var cursor uint64
	for {
		scan, err := s.valkey.Do(ctx, s.valkey.B().Scan().Cursor(cursor).Match(match).Count(100).Build()).AsScanEntry()
		if err != nil {
			return errors.Join(ErrClear, err)
		}

		cursor = scan.Cursor
		for _, element := range scan.Elements {
			if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(element).Build()).Error(); err != nil {
				return errors.Join(ErrClear, err)
			}
		}

		if cursor == 0 {
			return nil
		}
	}
}

func (s *Store) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
