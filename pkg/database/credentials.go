// Package database opens the Redis and PostgreSQL connections used by the
// overlay stores.
package database

import (
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/keyring"
)

// Secrets looks up stored passwords by keyring user. An absent entry yields
// "" and no error.
type Secrets interface {
	Lookup(user string) (string, error)
}

// RedisFromSettings builds a Redis configuration from the overlay store
// settings. Zero fields keep their defaults.
func RedisFromSettings(s config.RedisStore, secrets Secrets) (RedisConfig, error) {
	cfg := DefaultRedisConfig()
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	cfg.DB = s.DB

	if secrets != nil {
		password, err := secrets.Lookup(keyring.StoreUser(config.BackendRedis))
		if err != nil {
			return RedisConfig{}, err
		}
		cfg.Password = password
	}
	return cfg, nil
}

// PostgresFromSettings builds a PostgreSQL configuration from the overlay
// store settings. Zero fields keep their defaults.
func PostgresFromSettings(s config.PostgresStore, secrets Secrets) (PostgreSQLConfig, error) {
	cfg := DefaultPostgreSQLConfig()
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	if s.Database != "" {
		cfg.Database = s.Database
	}
	if s.User != "" {
		cfg.User = s.User
	}
	if s.SSLMode != "" {
		cfg.SSLMode = s.SSLMode
	}

	if secrets != nil {
		password, err := secrets.Lookup(keyring.StoreUser(config.BackendPostgres))
		if err != nil {
			return PostgreSQLConfig{}, err
		}
		cfg.Password = password
	}
	return cfg, nil
}
