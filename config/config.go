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


// Package config holds the settings needed to open a hashstore database.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// Supported storage backends.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds configuration for a hashstore database.
type Config struct {
	// Backend selects the store: "redis" or "badger".
	// Default: "redis"
	Backend string `env:"HASHSTORE_BACKEND"`

	// RedisURL is the connection target in the form
	// redis://[user][:password]@[host][:port][/db].
	// Default: "redis://localhost:6379/0"
	RedisURL string `env:"HASHSTORE_REDIS_URL"`

	// RedisPoolSize caps the go-redis connection pool. Zero keeps the
	// go-redis default.
	RedisPoolSize int `env:"HASHSTORE_REDIS_POOL_SIZE"`

	// BadgerPath is the directory of the embedded database.
	// Default: "hashstore-data"
	BadgerPath string `env:"HASHSTORE_BADGER_PATH"`

	// BadgerInMemory keeps the embedded database in memory only.
	BadgerInMemory bool `env:"HASHSTORE_BADGER_IN_MEMORY"`

	// Denylist is "default", "extended" or a literal set of characters to
	// strip from every input.
	// Default: "default"
	Denylist string `env:"HASHSTORE_DENYLIST"`

	// ConnectRetries is how many times opening the store is attempted.
	// Default: 3
	ConnectRetries int `env:"HASHSTORE_CONNECT_RETRIES"`

	// RetryDelay is the wait before the first retry; it doubles each time.
	// Default: 200ms
	RetryDelay time.Duration `env:"HASHSTORE_RETRY_DELAY"`

	// SecretsNamespace holds password hashes.
	// Default: "user_passwords"
	SecretsNamespace string `env:"HASHSTORE_SECRETS_NAMESPACE"`

	// RecordsNamespace holds user records.
	// Default: "users"
	RecordsNamespace string `env:"HASHSTORE_RECORDS_NAMESPACE"`

	// PoolSize is the number of workers used for bulk user creation. Zero
	// means runtime.NumCPU() / 2.
	PoolSize int `env:"HASHSTORE_POOL_SIZE"`
}

// Option is a functional option for configuring a Config.
type Option func(*Config)

// WithBackend sets the storage backend.
func WithBackend(backend string) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithRedisURL selects the redis backend at url.
func WithRedisURL(url string) Option {
	return func(c *Config) {
		c.Backend = BackendRedis
		c.RedisURL = url
	}
}

// WithBadgerPath selects the badger backend stored at path.
func WithBadgerPath(path string) Option {
	return func(c *Config) {
		c.Backend = BackendBadger
		c.BadgerPath = path
		c.BadgerInMemory = false
	}
}

// WithBadgerInMemory selects an in-memory badger backend.
func WithBadgerInMemory() Option {
	return func(c *Config) {
		c.Backend = BackendBadger
		c.BadgerInMemory = true
	}
}

// WithDenylist sets the sanitizer denylist.
func WithDenylist(denylist string) Option {
	return func(c *Config) {
		c.Denylist = denylist
	}
}

// WithRetry sets the connect attempts and the first retry delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		c.ConnectRetries = attempts
		c.RetryDelay = delay
	}
}

// WithNamespaces sets the secrets and records namespaces.
func WithNamespaces(secrets, records string) Option {
	return func(c *Config) {
		c.SecretsNamespace = secrets
		c.RecordsNamespace = records
	}
}

// WithPoolSize sets the bulk creation worker count.
func WithPoolSize(size int) Option {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// DefaultConfig returns a Config pointing at a local Redis server.
func DefaultConfig() *Config {
	return &Config{
		Backend:          BackendRedis,
		RedisURL:         "redis://localhost:6379/0",
		BadgerPath:       "hashstore-data",
		Denylist:         "default",
		ConnectRetries:   3,
		RetryDelay:       200 * time.Millisecond,
		SecretsNamespace: "user_passwords",
		RecordsNamespace: "users",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithRedisURL("redis://cache:6379/2"),
//	    WithDenylist("extended"),
//	)
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// FromEnv builds a Config from the defaults overridden by HASHSTORE_*
// environment variables, then applies opts.
func FromEnv(opts ...Option) (*Config, error) {
	return fromEnv(env.Options{}, opts...)
}

// FromEnvMap is FromEnv over an explicit environment instead of the process
// one.
func FromEnvMap(environment map[string]string, opts ...Option) (*Config, error) {
	return fromEnv(env.Options{Environment: environment}, opts...)
}

func fromEnv(envOpts env.Options, opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

// Normalize puts the configuration in canonical form.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.SecretsNamespace = strings.TrimSpace(c.SecretsNamespace)
	c.RecordsNamespace = strings.TrimSpace(c.RecordsNamespace)
	if c.Denylist == "" {
		c.Denylist = "default"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: RedisURL is required", ErrInvalidConfig)
		}
		if _, err := redis.ParseURL(c.RedisURL); err != nil {
			return fmt.Errorf("%w: RedisURL: %w", ErrInvalidConfig, err)
		}
		if c.RedisPoolSize < 0 {
			return fmt.Errorf("%w: RedisPoolSize must not be negative", ErrInvalidConfig)
		}
	case BackendBadger:
		if !c.BadgerInMemory && strings.TrimSpace(c.BadgerPath) == "" {
			return fmt.Errorf("%w: BadgerPath is required unless BadgerInMemory is set", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	if c.ConnectRetries < 1 {
		return fmt.Errorf("%w: ConnectRetries must be at least 1", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: RetryDelay must not be negative", ErrInvalidConfig)
	}
	if c.SecretsNamespace == "" || c.RecordsNamespace == "" {
		return fmt.Errorf("%w: namespaces are required", ErrInvalidConfig)
	}
	if c.SecretsNamespace == c.RecordsNamespace {
		return fmt.Errorf("%w: secrets and records namespaces must differ", ErrInvalidConfig)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("%w: PoolSize must not be negative", ErrInvalidConfig)
	}
	return nil
}
