// Package cache provides a small cache abstraction with in-memory and
// Redis implementations. Meridian uses it for resolved permission sets
// and system configuration.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, pattern string) error
	Close() error
}

// PermissionKey builds the cache key for a role's resolved permission set
func PermissionKey(roleID string) string {
	return "permissions:" + roleID
}

// ConfigKey builds the cache key for a system config entry
func ConfigKey(key string) string {
	return "config:" + key
}
