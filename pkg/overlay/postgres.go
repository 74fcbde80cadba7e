package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by PostgresStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const createOverlayTable = `
CREATE TABLE IF NOT EXISTS cql_map_overlays (
    table_name  TEXT        NOT NULL,
    column_name TEXT        NOT NULL,
    strict      BOOLEAN     NOT NULL DEFAULT FALSE,
    fields      JSONB       NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (table_name, column_name)
)`

// PostgresStore keeps one row per overlay in cql_map_overlays.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore creates a store over db. Call EnsureSchema once before use.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the overlay table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createOverlayTable); err != nil {
		return fmt.Errorf("failed to create overlay table: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, table, column string) (*Overlay, error) {
	var (
		strict bool
		fields []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT strict, fields FROM cql_map_overlays WHERE table_name = $1 AND column_name = $2`,
		table, column).Scan(&strict, &fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load overlay %s.%s: %w", table, column, err)
	}
	return rowOverlay(table, column, strict, fields)
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, o *Overlay) error {
	fields, err := json.Marshal(o.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO cql_map_overlays (table_name, column_name, strict, fields, updated_at)
VALUES ($1, $2, $3, $4::jsonb, now())
ON CONFLICT (table_name, column_name)
DO UPDATE SET strict = EXCLUDED.strict, fields = EXCLUDED.fields, updated_at = now()`,
		o.Table, o.Column, o.Strict, string(fields))
	if err != nil {
		return fmt.Errorf("failed to save overlay %s.%s: %w", o.Table, o.Column, err)
	}
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, table, column string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM cql_map_overlays WHERE table_name = $1 AND column_name = $2`, table, column)
	if err != nil {
		return fmt.Errorf("failed to delete overlay %s.%s: %w", table, column, err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, table string) ([]*Overlay, error) {
	rows, err := s.db.Query(ctx,
		`SELECT column_name, strict, fields FROM cql_map_overlays WHERE table_name = $1 ORDER BY column_name`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlays of %s: %w", table, err)
	}
	defer rows.Close()

	var out []*Overlay
	for rows.Next() {
		var (
			column string
			strict bool
			fields []byte
		)
		if err := rows.Scan(&column, &strict, &fields); err != nil {
			return nil, fmt.Errorf("failed to list overlays of %s: %w", table, err)
		}
		o, err := rowOverlay(table, column, strict, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list overlays of %s: %w", table, err)
	}
	return out, nil
}

func rowOverlay(table, column string, strict bool, fields []byte) (*Overlay, error) {
	o := &Overlay{Table: table, Column: column, Strict: strict}
	if err := json.Unmarshal(fields, &o.Fields); err != nil {
		return nil, fmt.Errorf("corrupt overlay %s.%s: %w", table, column, err)
	}
	return o, nil
}
