package overlay

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/config"
)

// exerciseStore runs the same contract against every Store implementation.
func exerciseStore(t *testing.T, store Store, table string) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx, table, "attrs")
	require.NoError(t, err)
	assert.Nil(t, got)

	o := sensorOverlay(true)
	o.Table = table
	require.NoError(t, store.Save(ctx, o))
	require.NoError(t, store.Save(ctx, &Overlay{Table: table, Column: "a_first", Fields: []Field{{Key: "k", Type: "int"}}}))

	got, err = store.Load(ctx, table, "attrs")
	require.NoError(t, err)
	assert.Equal(t, o, got)

	o.Strict = false
	o.Fields = o.Fields[:1]
	require.NoError(t, store.Save(ctx, o))
	got, err = store.Load(ctx, table, "attrs")
	require.NoError(t, err)
	assert.False(t, got.Strict)
	assert.Len(t, got.Fields, 1)

	list, err := store.List(ctx, table)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a_first", list[0].Column)
	assert.Equal(t, "attrs", list[1].Column)

	require.NoError(t, store.Delete(ctx, table, "attrs"))
	require.NoError(t, store.Delete(ctx, table, "attrs"))
	require.NoError(t, store.Delete(ctx, table, "a_first"))
	list, err = store.List(ctx, table)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(config.InMemory(config.Defaults())), "iot.devices")
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDB_CQL_TEST_REDIS")
	if addr == "" {
		t.Skip("REDB_CQL_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	table := fmt.Sprintf("test.devices_%d", time.Now().UnixNano())
	store := NewRedisStore(client, "redb-cql-test:")
	defer client.Del(context.Background(), store.key(table))

	exerciseStore(t, store, table)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("REDB_CQL_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("REDB_CQL_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	exerciseStore(t, store, fmt.Sprintf("test.devices_%d", time.Now().UnixNano()))
}
