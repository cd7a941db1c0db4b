// Package storagetest holds the behavior every storage.Driver must share.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/hashstore/storage"
)

// OpenFunc returns a freshly opened, empty driver. The caller closes it.
type OpenFunc func(t *testing.T) storage.Driver

// RunDriverContract exercises a driver implementation against the
// storage.Driver contract.
func RunDriverContract(t *testing.T, open OpenFunc) {
	ctx := context.Background()

	t.Run("OpenTwice", func(t *testing.T) {
		d := open(t)
		defer d.Close()
		assert.ErrorIs(t, d.Open(ctx), storage.ErrAlreadyOpen)
	})

	t.Run("Ping", func(t *testing.T) {
		d := open(t)
		defer d.Close()
		assert.NoError(t, d.Ping(ctx))
	})

	t.Run("GetMissing", func(t *testing.T) {
		d := open(t)
		defer d.Close()
		_, err := d.Get(ctx, "ns:missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SetGet", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		require.NoError(t, d.Set(ctx, "ns:k", "v1"))
		got, err := d.Get(ctx, "ns:k")
		require.NoError(t, err)
		assert.Equal(t, "v1", got)

		require.NoError(t, d.Set(ctx, "ns:k", "v2"))
		got, err = d.Get(ctx, "ns:k")
		require.NoError(t, err)
		assert.Equal(t, "v2", got)
	})

	t.Run("HSetCountsWrittenFields", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		fields := map[string]string{"a": "1", "b": "2"}
		n, err := d.HSet(ctx, "ns:h", fields)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		// identical overwrite still writes every field
		n, err = d.HSet(ctx, "ns:h", fields)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("HSetMerges", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		_, err := d.HSet(ctx, "ns:h", map[string]string{"a": "1", "b": "2"})
		require.NoError(t, err)
		_, err = d.HSet(ctx, "ns:h", map[string]string{"b": "3", "c": "4"})
		require.NoError(t, err)

		got, err := d.HGetAll(ctx, "ns:h")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, got)
	})

	t.Run("HSetEmpty", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		n, err := d.HSet(ctx, "ns:h", map[string]string{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("HGetAllMissing", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		got, err := d.HGetAll(ctx, "ns:none")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("HGet", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		_, err := d.HSet(ctx, "ns:h", map[string]string{"a": "1"})
		require.NoError(t, err)

		got, err := d.HGet(ctx, "ns:h", "a")
		require.NoError(t, err)
		assert.Equal(t, "1", got)

		_, err = d.HGet(ctx, "ns:h", "zz")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = d.HGet(ctx, "ns:none", "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("HMGetAligned", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		_, err := d.HSet(ctx, "ns:h", map[string]string{"a": "1", "c": "3"})
		require.NoError(t, err)

		got, err := d.HMGet(ctx, "ns:h", "a", "b", "c")
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.NotNil(t, got[0])
		assert.Equal(t, "1", *got[0])
		assert.Nil(t, got[1])
		require.NotNil(t, got[2])
		assert.Equal(t, "3", *got[2])

		got, err = d.HMGet(ctx, "ns:none", "a")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0])
	})

	t.Run("Del", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		require.NoError(t, d.Set(ctx, "ns:s", "v"))
		_, err := d.HSet(ctx, "ns:h", map[string]string{"a": "1"})
		require.NoError(t, err)

		n, err := d.Del(ctx, "ns:s", "ns:h", "ns:none")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = d.Del(ctx, "ns:s")
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = d.Get(ctx, "ns:s")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		got, err := d.HGetAll(ctx, "ns:h")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("WrongType", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		require.NoError(t, d.Set(ctx, "ns:s", "v"))
		_, err := d.HSet(ctx, "ns:h", map[string]string{"a": "1"})
		require.NoError(t, err)

		_, err = d.Get(ctx, "ns:h")
		assert.ErrorIs(t, err, storage.ErrWrongType)
		_, err = d.HSet(ctx, "ns:s", map[string]string{"a": "1"})
		assert.ErrorIs(t, err, storage.ErrWrongType)
		_, err = d.HGetAll(ctx, "ns:s")
		assert.ErrorIs(t, err, storage.ErrWrongType)

		// SET replaces a hash
		require.NoError(t, d.Set(ctx, "ns:h", "now scalar"))
		got, err := d.Get(ctx, "ns:h")
		require.NoError(t, err)
		assert.Equal(t, "now scalar", got)
	})

	t.Run("Closed", func(t *testing.T) {
		d := open(t)
		require.NoError(t, d.Close())

		assert.ErrorIs(t, d.Close(), storage.ErrStorageClosed)
		assert.ErrorIs(t, d.Ping(ctx), storage.ErrStorageClosed)
		_, err := d.Get(ctx, "ns:k")
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
		assert.ErrorIs(t, d.Set(ctx, "ns:k", "v"), storage.ErrStorageClosed)
		_, err = d.HSet(ctx, "ns:h", map[string]string{"a": "1"})
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
		_, err = d.Del(ctx, "ns:k")
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	})

	t.Run("Reopen", func(t *testing.T) {
		d := open(t)
		require.NoError(t, d.Close())
		require.NoError(t, d.Open(ctx))
		defer d.Close()
		assert.NoError(t, d.Ping(ctx))
	})

	t.Run("Concurrent", func(t *testing.T) {
		d := open(t)
		defer d.Close()

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("ns:c%d", i)
				assert.NoError(t, d.Set(ctx, key, key))
				_, err := d.HSet(ctx, key+":h", map[string]string{"i": key})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		for i := range 20 {
			key := fmt.Sprintf("ns:c%d", i)
			got, err := d.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, key, got)
			field, err := d.HGet(ctx, key+":h", "i")
			require.NoError(t, err)
			assert.Equal(t, key, field)
		}
	})
}
