// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package hashstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/hashstore/accessor"
	"github.com/poiesic/hashstore/config"
	"github.com/poiesic/hashstore/sanitize"
	"github.com/poiesic/hashstore/storage"
	"github.com/poiesic/hashstore/storage/badger"
	"github.com/poiesic/hashstore/storage/redis"
	"github.com/poiesic/hashstore/user"
)

type Database struct {
	accessor *accessor.Accessor
	users    *user.Model
	shared   bool
	released atomic.Bool
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger *slog.Logger
	shared bool
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProcessAccessor makes the database use the process-wide accessor
// instead of a private one. The configuration only takes effect if the
// process accessor does not exist yet. The accessor stays connected until
// every database opened this way is closed.
func WithProcessAccessor() DatabaseOption {
	return func(o *databaseOptions) {
		o.shared = true
	}
}

// Open validates cfg, connects to the configured store and builds the user
// model on top of it.
func Open(ctx context.Context, cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	accOpts := []accessor.Option{
		accessor.WithSanitizer(sanitize.New(sanitize.ParseDenylist(cfg.Denylist))),
		accessor.WithLogger(options.logger),
		accessor.WithRetry(cfg.ConnectRetries, cfg.RetryDelay),
	}

	var acc *accessor.Accessor
	if options.shared {
		var err error
		acc, err = accessor.Acquire(ctx, func() (storage.Driver, error) {
			return newDriver(cfg, options.logger)
		}, accOpts...)
		if err != nil {
			return nil, err
		}
	} else {
		driver, err := newDriver(cfg, options.logger)
		if err != nil {
			return nil, err
		}
		acc = accessor.New(driver, accOpts...)
		if err := acc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	userOpts := []user.Option{
		user.WithNamespaces(cfg.SecretsNamespace, cfg.RecordsNamespace),
		user.WithLogger(options.logger),
	}
	if cfg.PoolSize > 0 {
		userOpts = append(userOpts, user.WithPoolSize(cfg.PoolSize))
	}
	users, err := user.NewModel(acc, userOpts...)
	if err != nil {
		if options.shared {
			accessor.Release()
		} else {
			acc.Disconnect(ctx)
		}
		return nil, err
	}

	return &Database{
		accessor: acc,
		users:    users,
		shared:   options.shared,
		logger:   options.logger,
	}, nil
}

// Close disconnects from the store. A database on the process-wide
// accessor only gives up its hold; the last one to close disconnects.
func (db *Database) Close() error {
	if db.shared {
		if !db.released.CompareAndSwap(false, true) {
			return nil
		}
		return accessor.Release()
	}
	if err := db.accessor.Disconnect(context.Background()); err != nil {
		db.logger.Error("error closing store connection", "err", err)
		return err
	}
	return nil
}

// Accessor returns the namespaced store accessor.
func (db *Database) Accessor() *accessor.Accessor {
	return db.accessor
}

// Users returns the user record model.
func (db *Database) Users() *user.Model {
	return db.users
}

func newDriver(cfg *config.Config, logger *slog.Logger) (storage.Driver, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		var opts []redis.Option
		opts = append(opts, redis.WithLogger(logger))
		if cfg.RedisPoolSize > 0 {
			opts = append(opts, redis.WithPoolSize(cfg.RedisPoolSize))
		}
		return redis.NewDriver(cfg.RedisURL, opts...)
	case config.BackendBadger:
		return badger.NewDriver(cfg.BadgerPath, cfg.BadgerInMemory, badger.WithLogger(logger)), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
}
