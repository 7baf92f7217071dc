package storage_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/2beens/gymcoach/internal/db"
	"github.com/2beens/gymcoach/internal/storage"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := storage.NewRedisStore(rdb)
	ctx := context.Background()

	mock.ExpectGet("missing").SetErr(redis.Nil)
	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	mock.ExpectGet("k").SetVal(`{"a":1}`)
	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), val)

	mock.ExpectGet("broken").SetErr(errors.New("connection refused"))
	_, err = store.Get(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrKeyNotFound)

	mock.ExpectSet("k", []byte("v"), 0).SetVal("OK")
	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	mock.ExpectDel("k").SetVal(1)
	require.NoError(t, store.Del(ctx, "k"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore(1024 * 1024)
	ctx := context.Background()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))
	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)

	require.NoError(t, store.Del(ctx, "k"))
	require.NoError(t, store.Del(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestPsqlStore(t *testing.T) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		t.Skip("POSTGRES_HOST not set")
	}
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	ctx := context.Background()
	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: host,
		DBPort: port,
		DBName: "gymcoach_test",
	})
	require.NoError(t, err)
	defer pool.Close()

	store := storage.NewPsqlStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	key := "test_" + t.Name()
	require.NoError(t, store.Del(ctx, key))

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, key, []byte("one")))
	require.NoError(t, store.Set(ctx, key, []byte("two")))
	val, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), val)

	require.NoError(t, store.Del(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}
