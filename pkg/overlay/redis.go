package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix starts every overlay hash key.
const DefaultRedisPrefix = "redb-cql:overlays:"

// RedisStore keeps one hash per table: field = column, value = overlay JSON.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a store over client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(table string) string {
	return s.prefix + table
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, table, column string) (*Overlay, error) {
	data, err := s.client.HGet(ctx, s.key(table), column).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load overlay %s.%s: %w", table, column, err)
	}
	return decodeOverlay(table, column, data)
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, o *Overlay) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(o.Table), o.Column, data).Err(); err != nil {
		return fmt.Errorf("failed to save overlay %s.%s: %w", o.Table, o.Column, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, table, column string) error {
	if err := s.client.HDel(ctx, s.key(table), column).Err(); err != nil {
		return fmt.Errorf("failed to delete overlay %s.%s: %w", table, column, err)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, table string) ([]*Overlay, error) {
	all, err := s.client.HGetAll(ctx, s.key(table)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list overlays of %s: %w", table, err)
	}
	out := make([]*Overlay, 0, len(all))
	for column, data := range all {
		o, err := decodeOverlay(table, column, []byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sortByColumn(out)
	return out, nil
}

// decodeOverlay reads stored JSON. The storage key wins over the table and
// column recorded in the document.
func decodeOverlay(table, column string, data []byte) (*Overlay, error) {
	var o Overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("corrupt overlay %s.%s: %w", table, column, err)
	}
	o.Table = table
	o.Column = column
	return &o, nil
}
