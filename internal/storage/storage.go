// Package storage provides the persistence boundary for session snapshots.
//
// Adapters are pluggable; the filesystem adapter is the default backend.
// Persistence is best-effort throughout the application: a failing store
// degrades durability, never availability.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("storage: key not found")

// ErrInvalidKey is returned when a key contains path separators or other
// characters the backend cannot represent safely.
var ErrInvalidKey = errors.New("storage: invalid key")

// Adapter defines the interface for storing and retrieving session
// snapshots.
//
// All methods must be thread-safe. Keys are flat identifiers; hierarchy is
// not supported.
type Adapter interface {
	// Store persists a value under the given key, replacing any previous
	// value atomically.
	Store(ctx context.Context, key string, value []byte) error

	// Load returns the value stored under the key.
	// Returns ErrNotFound if the key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the key and its value.
	// Returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error

	// List returns the keys matching the given glob pattern
	// (path.Match syntax). A backing location that does not exist yet is
	// not an error: List returns an empty slice.
	List(ctx context.Context, pattern string) ([]string, error)
}
