package storage

import (
	"context"
)

// Driver is the contract a key-value store must satisfy to back the accessor.
// Keys are passed verbatim; namespacing happens above this layer.
// Implementations must be thread-safe and support concurrent access.
type Driver interface {
	// Open establishes the connection (or opens the database).
	// Returns ErrAlreadyOpen if called twice without Close.
	Open(ctx context.Context) error

	// Close releases the connection. Returns ErrStorageClosed if not open.
	Close() error

	// Ping verifies the store answers. Returns ErrStorageClosed if not open.
	Ping(ctx context.Context) error

	// Get returns the scalar stored at key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a scalar at key, replacing whatever the key held.
	Set(ctx context.Context, key, value string) error

	// HSet writes every field into the hash at key, creating it if needed.
	// Returns the number of fields written, new or updated.
	HSet(ctx context.Context, key string, fields map[string]string) (int, error)

	// HGetAll returns every field of the hash at key.
	// A missing key yields an empty map and no error.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HGet returns one field of the hash at key.
	// Returns ErrNotFound if the key or the field doesn't exist.
	HGet(ctx context.Context, key, field string) (string, error)

	// HMGet returns the requested fields in order; missing fields are nil.
	HMGet(ctx context.Context, key string, fields ...string) ([]*string, error)

	// Del removes the given keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int, error)
}
