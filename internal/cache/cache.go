// Package cache stores provider responses for a fixed number of days.
package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"Buffetology/internal/config"
)

// Store is an expiring key/value blob store. Get reports a miss with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
	Close() error
}

// Day is the unit of cache expiry.
const Day = 24 * time.Hour

// New builds the configured store. A disabled cache yields a nil Store.
func New(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	ttl := time.Duration(cfg.Cache.ExpiryDays) * Day
	switch cfg.Cache.Backend {
	case "file", "":
		return store(NewFileStore(cfg.Cache.Directory, ttl))
	case "redis":
		return store(NewRedisStore(RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}, ttl))
	case "badger":
		return store(NewBadgerStore(filepath.Join(cfg.Cache.Directory, "badger"), ttl))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// store keeps a failed constructor from yielding a non-nil Store holding a nil pointer.
func store[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
