// Package redis implements storage.Driver on top of a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/poiesic/hashstore/storage"
)

// Driver talks to a Redis server through go-redis. Composite keys are sent
// verbatim so data written by other clients stays addressable.
type Driver struct {
	options *goredis.Options
	logger  *slog.Logger

	mu     sync.RWMutex
	client *goredis.Client
}

var _ storage.Driver = (*Driver)(nil)

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used by the driver.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithPoolSize sets the maximum number of socket connections.
func WithPoolSize(size int) Option {
	return func(d *Driver) {
		if size > 0 {
			d.options.PoolSize = size
		}
	}
}

// NewDriver creates a driver for the server described by url, in the form
// redis://[user][:password]@[host][:port][/db]. No connection is made until
// Open is called.
func NewDriver(url string, opts ...Option) (*Driver, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	d := &Driver{
		options: options,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Addr returns the host:port the driver connects to.
func (d *Driver) Addr() string {
	return d.options.Addr
}

// Open connects to the server and verifies it answers.
func (d *Driver) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return storage.ErrAlreadyOpen
	}

	client := goredis.NewClient(d.options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping %s: %w", d.options.Addr, err)
	}
	d.client = client
	d.logger.Debug("redis connection opened", "addr", d.options.Addr, "db", d.options.DB)
	return nil
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return storage.ErrStorageClosed
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *Driver) conn() (*goredis.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, storage.ErrStorageClosed
	}
	return d.client, nil
}

// Ping checks that the server answers.
func (d *Driver) Ping(ctx context.Context) error {
	c, err := d.conn()
	if err != nil {
		return err
	}
	return mapError(c.Ping(ctx).Err())
}

// Get returns the scalar stored at key.
func (d *Driver) Get(ctx context.Context, key string) (string, error) {
	c, err := d.conn()
	if err != nil {
		return "", err
	}
	value, err := c.Get(ctx, key).Result()
	if err != nil {
		return "", mapError(err)
	}
	return value, nil
}

// Set stores a scalar at key.
func (d *Driver) Set(ctx context.Context, key, value string) error {
	c, err := d.conn()
	if err != nil {
		return err
	}
	return mapError(c.Set(ctx, key, value, 0).Err())
}

// HSet writes fields into the hash at key in a single command. Redis reports
// only newly created fields; the driver returns every field written.
func (d *Driver) HSet(ctx context.Context, key string, fields map[string]string) (int, error) {
	c, err := d.conn()
	if err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(fields)*2)
	for name, value := range fields {
		args = append(args, name, value)
	}
	if err := c.HSet(ctx, key, args...).Err(); err != nil {
		return 0, mapError(err)
	}
	return len(fields), nil
}

// HGetAll returns every field of the hash at key.
func (d *Driver) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	c, err := d.conn()
	if err != nil {
		return nil, err
	}
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, mapError(err)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// HGet returns one field of the hash at key.
func (d *Driver) HGet(ctx context.Context, key, field string) (string, error) {
	c, err := d.conn()
	if err != nil {
		return "", err
	}
	value, err := c.HGet(ctx, key, field).Result()
	if err != nil {
		return "", mapError(err)
	}
	return value, nil
}

// HMGet returns the requested fields in order; missing fields are nil.
func (d *Driver) HMGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	c, err := d.conn()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	raw, err := c.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, mapError(err)
	}
	values := make([]*string, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			values[i] = &s
		}
	}
	return values, nil
}

// Del removes keys and returns how many existed.
func (d *Driver) Del(ctx context.Context, keys ...string) (int, error) {
	c, err := d.conn()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.Del(ctx, keys...).Result()
	if err != nil {
		return 0, mapError(err)
	}
	return int(n), nil
}

// mapError translates go-redis errors into storage sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.Nil):
		return storage.ErrNotFound
	case strings.HasPrefix(err.Error(), "WRONGTYPE"):
		return fmt.Errorf("%w: %w", storage.ErrWrongType, err)
	}
	return err
}
