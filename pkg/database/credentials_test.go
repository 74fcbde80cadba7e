package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/keyring"
)

type mapSecrets map[string]string

func (m mapSecrets) Lookup(user string) (string, error) {
	if v, ok := m["error"]; ok {
		return "", errors.New(v)
	}
	return m[user], nil
}

func TestRedisFromSettings(t *testing.T) {
	cfg, err := RedisFromSettings(config.RedisStore{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRedisConfig(), cfg)

	cfg, err = RedisFromSettings(config.RedisStore{Host: "cache", Port: 6380, DB: 2},
		mapSecrets{keyring.StoreUser(config.BackendRedis): "pw"})
	require.NoError(t, err)
	assert.Equal(t, "cache", cfg.Host)
	assert.Equal(t, 6380, cfg.Port)
	assert.Equal(t, 2, cfg.DB)
	assert.Equal(t, "pw", cfg.Password)

	_, err = RedisFromSettings(config.RedisStore{}, mapSecrets{"error": "locked"})
	assert.Error(t, err)
}

func TestPostgresFromSettings(t *testing.T) {
	cfg, err := PostgresFromSettings(config.PostgresStore{Database: "overlays", SSLMode: "require"},
		mapSecrets{keyring.StoreUser(config.BackendPostgres): "pg"})
	require.NoError(t, err)
	assert.Equal(t, "overlays", cfg.Database)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "pg", cfg.Password)
}
