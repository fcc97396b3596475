// Package cache stores serialized layout results between runs.
//
// # Backends
//
// [FileCache] keeps entries under a local directory and is what the CLI
// uses. [RedisCache] shares entries between API server instances.
// [NullCache] disables caching.
//
// # Keys
//
// A [Keyer] derives keys from a document hash and the options that change a
// layout. [ScopedKeyer] prefixes every key, which keeps tenants or
// environments apart on a shared backend.
package cache

import (
	"context"
	"time"
)

// TTLLayout is how long a layout result stays cached.
const TTLLayout = 24 * time.Hour

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// LayoutKeyOpts are the layout inputs that live outside the document.
type LayoutKeyOpts struct {
	// Now is the clock reading the "current" token resolves against,
	// floored to the period that can change the window. It stays zero for
	// documents with a fixed window.
	Now time.Time `json:"now"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(docHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}
