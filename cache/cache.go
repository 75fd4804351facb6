// Package cache provides render cache implementations for page mappings.
package cache

import (
	"context"
	"time"
)

// TranslationCache is the interface for the render cache.
type TranslationCache interface {
	// Get retrieves a cached value. Returns empty string and false if not
	// found, expired or unreachable.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value. A ttl of 0 uses the cache default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Clear removes every key owned by the cache.
	Clear(ctx context.Context) error
}
