// Package cache stores derived artifacts (layouts, rendered diagrams) keyed
// by the fingerprint of the branch set they were computed from.
//
// Three backends implement [Cache]:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//
// Keys are built by a [Keyer]. Equal snapshots and options always map to
// the same key, so a cached artifact is valid for as long as it lives.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Default time-to-live values.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is the storage interface for derived artifacts.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultDir returns the per-user cache directory for app.
func DefaultDir(app string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, app), nil
}
