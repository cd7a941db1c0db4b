// Package badger implements storage.Driver on an embedded BadgerDB database.
package badger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/hashstore/storage"
)

// Driver keeps scalars and hashes in BadgerDB, either on disk or in memory.
// Each operation runs in its own transaction.
type Driver struct {
	path     string
	inMemory bool
	logger   *slog.Logger

	mu      sync.RWMutex
	backend *Backend
}

var _ storage.Driver = (*Driver)(nil)

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger badger and the driver write to.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a driver for the database at path. When inMemory is true
// the path is ignored and nothing touches the disk. The database is opened
// by Open.
func NewDriver(path string, inMemory bool, opts ...Option) *Driver {
	d := &Driver{
		path:     path,
		inMemory: inMemory,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open opens the database.
func (d *Driver) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backend != nil {
		return storage.ErrAlreadyOpen
	}
	backend, err := OpenBackend(d.path, d.inMemory, d.logger)
	if err != nil {
		return err
	}
	d.backend = backend
	d.logger.Debug("badger database opened", "path", d.path, "in_memory", d.inMemory)
	return nil
}

// Close closes the database.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backend == nil {
		return storage.ErrStorageClosed
	}
	err := d.backend.Close()
	d.backend = nil
	return err
}

func (d *Driver) open(ctx context.Context) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.backend == nil || d.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return d.backend, nil
}

// Ping reports whether the database is open.
func (d *Driver) Ping(ctx context.Context) error {
	_, err := d.open(ctx)
	return err
}

// Get returns the scalar stored at key.
func (d *Driver) Get(ctx context.Context, key string) (string, error) {
	b, err := d.open(ctx)
	if err != nil {
		return "", err
	}
	var value string
	err = b.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeScalarKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			if exists(tx, makeHashKey(key)) {
				return storage.ErrWrongType
			}
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, err
}

// Set stores a scalar at key, replacing a hash stored there.
func (d *Driver) Set(ctx context.Context, key, value string) error {
	b, err := d.open(ctx)
	if err != nil {
		return err
	}
	return b.Update(func(tx *badger.Txn) error {
		if err := tx.Delete(makeHashKey(key)); err != nil {
			return err
		}
		return tx.Set(makeScalarKey(key), []byte(value))
	})
}

// HSet merges fields into the hash at key.
func (d *Driver) HSet(ctx context.Context, key string, fields map[string]string) (int, error) {
	b, err := d.open(ctx)
	if err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, nil
	}
	err = b.Update(func(tx *badger.Txn) error {
		if exists(tx, makeScalarKey(key)) {
			return storage.ErrWrongType
		}
		current, err := readHash(tx, key)
		if err != nil {
			return err
		}
		for name, value := range fields {
			current[name] = value
		}
		return tx.Set(makeHashKey(key), marshalHash(current))
	})
	if err != nil {
		return 0, err
	}
	return len(fields), nil
}

// HGetAll returns every field of the hash at key.
func (d *Driver) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := d.loadHash(ctx, key)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// HGet returns one field of the hash at key.
func (d *Driver) HGet(ctx context.Context, key, field string) (string, error) {
	fields, err := d.loadHash(ctx, key)
	if err != nil {
		return "", err
	}
	value, ok := fields[field]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// HMGet returns the requested fields in order; missing fields are nil.
func (d *Driver) HMGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	stored, err := d.loadHash(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	values := make([]*string, len(fields))
	for i, name := range fields {
		if value, ok := stored[name]; ok {
			values[i] = &value
		}
	}
	return values, nil
}

// Del removes keys of either kind and returns how many existed.
func (d *Driver) Del(ctx context.Context, keys ...string) (int, error) {
	b, err := d.open(ctx)
	if err != nil {
		return 0, err
	}
	var deleted int
	err = b.Update(func(tx *badger.Txn) error {
		deleted = 0
		for _, key := range keys {
			scalarKey, hashKey := makeScalarKey(key), makeHashKey(key)
			if !exists(tx, scalarKey) && !exists(tx, hashKey) {
				continue
			}
			if err := tx.Delete(scalarKey); err != nil {
				return err
			}
			if err := tx.Delete(hashKey); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (d *Driver) loadHash(ctx context.Context, key string) (map[string]string, error) {
	b, err := d.open(ctx)
	if err != nil {
		return nil, err
	}
	var fields map[string]string
	err = b.View(func(tx *badger.Txn) error {
		if exists(tx, makeScalarKey(key)) {
			return storage.ErrWrongType
		}
		fields, err = readHash(tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// readHash returns the stored hash, or an empty map if key holds none.
func readHash(tx *badger.Txn, key string) (map[string]string, error) {
	item, err := tx.Get(makeHashKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var fields map[string]string
	err = item.Value(func(val []byte) error {
		var err error
		fields, err = unmarshalHash(val)
		return err
	})
	return fields, err
}

func exists(tx *badger.Txn, key []byte) bool {
	_, err := tx.Get(key)
	return err == nil
}
