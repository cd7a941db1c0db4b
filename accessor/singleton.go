package accessor

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/hashstore/core"
	"github.com/poiesic/hashstore/storage"
)

// DriverFactory builds the driver of the process accessor.
type DriverFactory func() (storage.Driver, error)

var (
	instanceMu sync.Mutex
	instance   *Accessor
	// holders counts successful Acquire calls not yet released.
	holders int
)

// Instance returns the process-wide accessor, creating it on first use with
// the driver built by factory. Once created, later factories and options are
// ignored. The accessor still has to be connected.
func Instance(factory DriverFactory, opts ...Option) (*Accessor, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instanceLocked(factory, opts...)
}

func instanceLocked(factory DriverFactory, opts ...Option) (*Accessor, error) {
	if instance != nil {
		if factory != nil || len(opts) > 0 {
			instance.logger.Debug("accessor already initialized, ignoring factory and options")
		}
		return instance, nil
	}
	if factory == nil {
		return nil, ErrNoDriverFactory
	}

	driver, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	instance = New(driver, opts...)
	return instance, nil
}

// Acquire returns the process-wide accessor connected, creating it like
// Instance does, and registers the caller as a holder. Every successful
// Acquire must be paired with one Release.
func Acquire(ctx context.Context, factory DriverFactory, opts ...Option) (*Accessor, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	a, err := instanceLocked(factory, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.EnsureConnected(ctx); err != nil {
		if holders == 0 {
			instance = nil
		}
		return nil, err
	}
	holders++
	return a, nil
}

// Release drops one holder registered by Acquire. The last holder
// disconnects and discards the process-wide accessor.
func Release() error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil || holders == 0 {
		return nil
	}
	holders--
	if holders > 0 {
		return nil
	}
	a := instance
	instance = nil
	if err := a.Disconnect(context.Background()); err != nil {
		a.logger.Warn("failed to disconnect accessor on release", "error", err)
		return err
	}
	return nil
}

// Reset disconnects and discards the process-wide accessor so the next call
// to Instance creates a fresh one, whatever holders remain.
func Reset() {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	holders = 0
	if instance == nil {
		return
	}
	instance.mu.RLock()
	connected := instance.connected
	instance.mu.RUnlock()
	if connected {
		if err := instance.Disconnect(context.Background()); err != nil {
			instance.logger.Warn("failed to disconnect accessor during reset", "error", err)
		}
	}
	instance = nil
}
