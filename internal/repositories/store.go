// package repositories provides the key-value persistence behind filter state and refresh signals.
package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/frontdesk/internal/shared"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value at key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// OpenStore builds the store selected by cfg.Driver, applying cfg.KeyPrefix.
func OpenStore(cfg shared.StorageConfig, db shared.DatabaseConfig) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLiteStore(cfg.SQLite.Path, db)
	case "redis":
		s, err = NewRedisStore(cfg.Redis)
	case "memory":
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return WithPrefix(s, cfg.KeyPrefix), nil
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix namespaces every key of s. An empty prefix returns s unchanged.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.prefix + k
	}
	return p.Store.Delete(ctx, full...)
}
