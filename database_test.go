package hashstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/hashstore/accessor"
	"github.com/poiesic/hashstore/config"
	"github.com/poiesic/hashstore/core"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("badger in memory", func(t *testing.T) {
		db, err := Open(ctx, config.NewConfig(config.WithBadgerInMemory()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Accessor())
		assert.NotNil(t, db.Users())
		assert.NotNil(t, db.logger)
		assert.True(t, db.Accessor().IsConnected(ctx))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		db, err := Open(ctx, config.NewConfig(config.WithRedisURL("redis://"+mr.Addr()+"/0")))
		require.NoError(t, err)
		defer db.Close()

		require.True(t, db.Accessor().SetScalar(ctx, "ns", "k", "v"))
		got, err := mr.Get("ns:k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("invalid config", func(t *testing.T) {
		db, err := Open(ctx, config.NewConfig(config.WithBackend("memcached")))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Nil(t, db)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := Open(ctx, config.NewConfig(config.WithBadgerPath(tmpFile), config.WithRetry(1, 0)))
		assert.ErrorIs(t, err, core.ErrConnection)
		assert.Nil(t, db)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		db, err := Open(ctx, config.NewConfig(config.WithRedisURL("redis://"+addr), config.WithRetry(2, 0)))
		assert.ErrorIs(t, err, core.ErrConnection)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, config.NewConfig(config.WithBadgerInMemory()))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.False(t, db.Accessor().IsConnected(ctx))
	assert.ErrorIs(t, db.Close(), core.ErrConnection)
}

func TestDatabase_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.NewConfig(config.WithBadgerPath(dir))

	db, err := Open(ctx, cfg)
	require.NoError(t, err)
	_, ok := db.Users().Create(ctx, "alice", "pw123", "a@x.com")
	require.True(t, ok)
	require.NoError(t, db.Close())

	db, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	u, ok := db.Users().LookupByIdentity(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, "a@x.com", u.Email)
	assert.True(t, db.Users().VerifyPassword(ctx, "alice", "pw123"))
}

func TestDatabase_Namespaces(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, config.NewConfig(config.WithBadgerInMemory(), config.WithNamespaces("pw", "accounts")))
	require.NoError(t, err)
	defer db.Close()

	u, ok := db.Users().Create(ctx, "bob", "pw", "")
	require.True(t, ok)

	_, ok = db.Accessor().GetScalar(ctx, "pw", u.Key)
	assert.True(t, ok)
	fields, ok := db.Accessor().GetHash(ctx, "accounts", u.Key)
	require.True(t, ok)
	assert.Equal(t, core.String("bob"), fields[core.FieldUsername])
}

func TestDatabase_ProcessAccessor(t *testing.T) {
	ctx := context.Background()
	accessor.Reset()
	t.Cleanup(accessor.Reset)

	cfg := config.NewConfig(config.WithBadgerInMemory())
	first, err := Open(ctx, cfg, WithProcessAccessor())
	require.NoError(t, err)

	second, err := Open(ctx, cfg, WithProcessAccessor())
	require.NoError(t, err)
	assert.Same(t, first.Accessor(), second.Accessor(), "both share the process accessor")

	require.True(t, first.Accessor().SetScalar(ctx, "ns", "k", "shared"))
	got, ok := second.Accessor().GetScalar(ctx, "ns", "k")
	require.True(t, ok)
	assert.Equal(t, "shared", got)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close(), "closing twice releases once")
	assert.True(t, second.Accessor().IsConnected(ctx), "other holders keep the connection")
	assert.True(t, second.Accessor().SetScalar(ctx, "ns", "k", "after"))
	got, ok = second.Accessor().GetScalar(ctx, "ns", "k")
	require.True(t, ok)
	assert.Equal(t, "after", got)

	require.NoError(t, second.Close())
	shared, err := accessor.Instance(nil)
	assert.ErrorIs(t, err, accessor.ErrNoDriverFactory, "last close discards the process accessor")
	assert.Nil(t, shared)
}

func TestDatabase_ProcessAccessorConcurrentOpen(t *testing.T) {
	ctx := context.Background()
	accessor.Reset()
	t.Cleanup(accessor.Reset)

	cfg := config.NewConfig(config.WithBadgerInMemory())
	const n = 8
	dbs := make([]*Database, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dbs[i], errs[i] = Open(ctx, cfg, WithProcessAccessor())
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i], "open %d", i)
		assert.Same(t, dbs[0].Accessor(), dbs[i].Accessor())
	}

	for i := 0; i < n-1; i++ {
		require.NoError(t, dbs[i].Close())
	}
	assert.True(t, dbs[n-1].Accessor().SetScalar(ctx, "ns", "k", "v"), "last holder still connected")
	require.NoError(t, dbs[n-1].Close())
	assert.False(t, dbs[n-1].Accessor().IsConnected(ctx))
}

func TestDatabase_ProcessAccessorFailedOpen(t *testing.T) {
	ctx := context.Background()
	accessor.Reset()
	t.Cleanup(accessor.Reset)

	cfg := config.NewConfig(
		config.WithRedisURL("redis://127.0.0.1:1/0"),
		config.WithRetry(1, time.Millisecond),
	)
	_, err := Open(ctx, cfg, WithProcessAccessor())
	require.Error(t, err)

	shared, err := accessor.Instance(nil)
	assert.ErrorIs(t, err, accessor.ErrNoDriverFactory, "failed first open leaves no process accessor")
	assert.Nil(t, shared)
}
