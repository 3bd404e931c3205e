package services

import (
	"context"
	"time"

	"safetrack/pkg/cache"
)

// CacheService is the slice of the redis cache the services use: plain
// key/value caching plus the per-owner lock that serializes contact creation.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	AcquireLock(ctx context.Context, key string, expiration time.Duration) (*cache.Lock, error)
	ReleaseLock(ctx context.Context, lock *cache.Lock) error
}
