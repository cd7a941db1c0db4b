package accessor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/hashstore/core"
	"github.com/poiesic/hashstore/sanitize"
	"github.com/poiesic/hashstore/storage"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 200 * time.Millisecond

	keySeparator = ":"
)

// Accessor is a namespaced view over a storage.Driver.
// It is safe for concurrent use.
type Accessor struct {
	driver    storage.Driver
	sanitizer *sanitize.Sanitizer
	logger    *slog.Logger
	retry     backoff

	mu        sync.RWMutex
	connected bool
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithSanitizer sets the sanitizer applied to every input.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(a *Accessor) {
		if s != nil {
			a.sanitizer = s
		}
	}
}

// WithLogger sets the logger failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Accessor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRetry sets how often Connect tries to open the driver and the delay
// before the first retry. Later delays double, up to five seconds.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(a *Accessor) {
		a.retry.attempts = attempts
		a.retry.base = delay
	}
}

// New creates an accessor over driver. The accessor starts disconnected.
func New(driver storage.Driver, opts ...Option) *Accessor {
	a := &Accessor{
		driver:    driver,
		sanitizer: sanitize.Default(),
		logger:    slog.Default(),
		retry: backoff{
			attempts: defaultRetryAttempts,
			base:     defaultRetryDelay,
			limit:    maxRetryDelay,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sanitizer returns the sanitizer applied to inputs.
func (a *Accessor) Sanitizer() *sanitize.Sanitizer {
	return a.sanitizer
}

// Connect opens the driver, retrying with exponential backoff.
// Fails with core.ErrConnection if already connected or if every attempt fails.
func (a *Accessor) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return fmt.Errorf("%w: already connected", core.ErrConnection)
	}
	return a.connect(ctx)
}

// EnsureConnected connects the accessor unless it is connected already.
// The check and the connect happen under one lock.
func (a *Accessor) EnsureConnected(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}
	return a.connect(ctx)
}

// connect opens the driver. Must be called with a.mu held.
func (a *Accessor) connect(ctx context.Context) error {
	err := a.retry.run(ctx, a.logger, func(ctx context.Context) error {
		err := a.driver.Open(ctx)
		if errors.Is(err, storage.ErrAlreadyOpen) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}

	a.connected = true
	a.logger.Info("connected to store")
	return nil
}

// Disconnect closes the driver. Fails with core.ErrConnection if not
// connected or if closing fails; either way the accessor ends disconnected.
func (a *Accessor) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return fmt.Errorf("%w: not connected", core.ErrConnection)
	}
	a.connected = false

	if err := a.driver.Close(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	a.logger.Info("disconnected from store")
	return nil
}

// IsConnected reports whether the accessor is connected and the store
// answers. It logs a warning when it returns false.
func (a *Accessor) IsConnected(ctx context.Context) bool {
	a.mu.RLock()
	connected := a.connected
	a.mu.RUnlock()

	if !connected {
		a.logger.Warn("store is not connected")
		return false
	}
	if err := a.driver.Ping(ctx); err != nil {
		a.logger.Warn("store is not answering", "error", err)
		return false
	}
	return true
}

// SetScalar stores value at namespace:key. The namespace, key and value are
// sanitized first and must not be empty afterwards.
func (a *Accessor) SetScalar(ctx context.Context, namespace, key, value string) bool {
	err := a.setScalar(ctx, namespace, key, value)
	return a.report("set scalar", namespace, key, err)
}

func (a *Accessor) setScalar(ctx context.Context, namespace, key, value string) error {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return err
	}
	value = a.sanitizer.String(value)
	if value == "" {
		return fmt.Errorf("%w: value is empty after sanitization", core.ErrValidation)
	}
	if err := a.driver.Set(ctx, composite, value); err != nil {
		return storeError(err)
	}
	return nil
}

// GetScalar returns the string stored at namespace:key.
func (a *Accessor) GetScalar(ctx context.Context, namespace, key string) (string, bool) {
	value, err := a.getScalar(ctx, namespace, key)
	if !a.report("get scalar", namespace, key, err) {
		return "", false
	}
	return value, true
}

func (a *Accessor) getScalar(ctx context.Context, namespace, key string) (string, error) {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return "", err
	}
	value, err := a.driver.Get(ctx, composite)
	if err != nil {
		return "", storeError(err)
	}
	return value, nil
}

// SetHash writes fields as one hash at namespace:key. Fields are sanitized,
// nested maps are serialized, and the write fails if nothing is left to
// store or the store reports zero fields written.
func (a *Accessor) SetHash(ctx context.Context, namespace, key string, fields map[string]core.Value) bool {
	err := a.setHash(ctx, namespace, key, fields)
	return a.report("set hash", namespace, key, err)
}

func (a *Accessor) setHash(ctx context.Context, namespace, key string, fields map[string]core.Value) error {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return err
	}
	clean, err := a.sanitizer.Object(fields)
	if err != nil {
		return err
	}
	if len(clean) == 0 {
		return fmt.Errorf("%w: no fields to store", core.ErrValidation)
	}
	encoded, err := storage.EncodeFields(clean)
	if err != nil {
		return err
	}
	written, err := a.driver.HSet(ctx, composite, encoded)
	if err != nil {
		return storeError(err)
	}
	if written == 0 {
		return fmt.Errorf("%w: no fields written", core.ErrStoreOperation)
	}
	return nil
}

// GetHash returns every field of the hash at namespace:key. A missing or
// empty hash is reported as absent.
func (a *Accessor) GetHash(ctx context.Context, namespace, key string) (map[string]core.Value, bool) {
	fields, err := a.getHash(ctx, namespace, key)
	if !a.report("get hash", namespace, key, err) {
		return nil, false
	}
	return fields, true
}

func (a *Accessor) getHash(ctx context.Context, namespace, key string) (map[string]core.Value, error) {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return nil, err
	}
	raw, err := a.driver.HGetAll(ctx, composite)
	if err != nil {
		return nil, storeError(err)
	}
	if len(raw) == 0 {
		return nil, storage.ErrNotFound
	}
	return storage.DecodeFields(raw), nil
}

// GetHashField returns one field of the hash at namespace:key. The field
// name is sanitized before the lookup.
func (a *Accessor) GetHashField(ctx context.Context, namespace, key, field string) (core.Value, bool) {
	value, err := a.getHashField(ctx, namespace, key, field)
	if !a.report("get hash field", namespace, key, err) {
		return core.Null(), false
	}
	return value, true
}

func (a *Accessor) getHashField(ctx context.Context, namespace, key, field string) (core.Value, error) {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return core.Null(), err
	}
	field = a.sanitizer.String(field)
	if field == "" {
		return core.Null(), fmt.Errorf("%w: field is empty after sanitization", core.ErrValidation)
	}
	raw, err := a.driver.HGet(ctx, composite, field)
	if err != nil {
		return core.Null(), storeError(err)
	}
	return storage.DecodeField(raw), nil
}

// GetHashFields returns the requested fields of the hash at namespace:key.
// Field names are sanitized and empty ones dropped; the result is aligned
// with the surviving names and holds core.Null() for missing fields.
func (a *Accessor) GetHashFields(ctx context.Context, namespace, key string, fields []string) ([]core.Value, bool) {
	values, err := a.getHashFields(ctx, namespace, key, fields)
	if !a.report("get hash fields", namespace, key, err) {
		return nil, false
	}
	return values, true
}

func (a *Accessor) getHashFields(ctx context.Context, namespace, key string, fields []string) ([]core.Value, error) {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = a.sanitizer.String(f); f != "" {
			names = append(names, f)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no fields requested", core.ErrValidation)
	}
	raw, err := a.driver.HMGet(ctx, composite, names...)
	if err != nil {
		return nil, storeError(err)
	}
	values := make([]core.Value, len(names))
	for i := range names {
		if i < len(raw) && raw[i] != nil {
			values[i] = storage.DecodeField(*raw[i])
		}
	}
	return values, nil
}

// DeleteKey removes namespace:key. It reports success only if a key was
// actually deleted.
func (a *Accessor) DeleteKey(ctx context.Context, namespace, key string) bool {
	err := a.deleteKey(ctx, namespace, key)
	return a.report("delete key", namespace, key, err)
}

func (a *Accessor) deleteKey(ctx context.Context, namespace, key string) error {
	composite, err := a.prepare(namespace, key)
	if err != nil {
		return err
	}
	deleted, err := a.driver.Del(ctx, composite)
	if err != nil {
		return storeError(err)
	}
	if deleted == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Key returns the physical key for namespace and key after sanitization.
func (a *Accessor) Key(namespace, key string) (string, error) {
	namespace = a.sanitizer.String(namespace)
	if namespace == "" {
		return "", fmt.Errorf("%w: namespace is empty after sanitization", core.ErrValidation)
	}
	key = a.sanitizer.String(key)
	if key == "" {
		return "", fmt.Errorf("%w: key is empty after sanitization", core.ErrValidation)
	}
	return namespace + keySeparator + key, nil
}

// prepare checks connectivity and composes the physical key.
func (a *Accessor) prepare(namespace, key string) (string, error) {
	a.mu.RLock()
	connected := a.connected
	a.mu.RUnlock()
	if !connected {
		return "", fmt.Errorf("%w: not connected", core.ErrConnection)
	}
	return a.Key(namespace, key)
}

// report logs err and converts it into the success flag callers see.
func (a *Accessor) report(op, namespace, key string, err error) bool {
	if err == nil {
		return true
	}
	attrs := []any{"op", op, "namespace", namespace, "key", key, "error", err}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a.logger.Debug("key not found", attrs...)
	case errors.Is(err, core.ErrValidation):
		a.logger.Warn("rejected invalid input", attrs...)
	default:
		a.logger.Error("store operation failed", attrs...)
	}
	return false
}

// storeError classifies a driver error.
func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return err
	case errors.Is(err, storage.ErrStorageClosed):
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	return fmt.Errorf("%w: %w", core.ErrStoreOperation, err)
}
