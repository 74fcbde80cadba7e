package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL represents a PostgreSQL connection pool
type PostgreSQL struct {
	pool *pgxpool.Pool
}

// PostgreSQLConfig holds the PostgreSQL connection configuration
type PostgreSQLConfig struct {
	User              string
	Password          string
	Host              string
	Port              int
	Database          string
	SSLMode           string
	MaxConnections    int32
	ConnectionTimeout time.Duration
}

// DefaultPostgreSQLConfig returns a default configuration for local development
func DefaultPostgreSQLConfig() PostgreSQLConfig {
	return PostgreSQLConfig{
		User:              "redb",
		Host:              "localhost",
		Port:              5432,
		Database:          "redb_cql",
		SSLMode:           "disable",
		MaxConnections:    4,
		ConnectionTimeout: 5 * time.Second,
	}
}

// NewPostgreSQL creates a connection pool and checks that the server answers.
func NewPostgreSQL(ctx context.Context, cfg PostgreSQLConfig) (*PostgreSQL, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("database host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("database user is required")
	}

	// Use pgxpool.ParseConfig("") and set fields so passwords need no escaping
	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to create connection config: %w", err)
	}

	poolConfig.ConnConfig.Host = cfg.Host
	poolConfig.ConnConfig.Port = uint16(cfg.Port)
	poolConfig.ConnConfig.Database = cfg.Database
	poolConfig.ConnConfig.User = cfg.User
	poolConfig.ConnConfig.Password = cfg.Password
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectionTimeout

	switch cfg.SSLMode {
	case "", "disable":
		poolConfig.ConnConfig.TLSConfig = nil
	case "require":
		//nolint:gosec // sslmode=require does not verify the server, as in libpq
		poolConfig.ConnConfig.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	case "verify-full":
		poolConfig.ConnConfig.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	default:
		return nil, fmt.Errorf("unsupported ssl mode %q", cfg.SSLMode)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.ConnectionTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnectionTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgreSQL{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (db *PostgreSQL) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection
func (db *PostgreSQL) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
