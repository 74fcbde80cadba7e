// Package schema discovers and caches Cassandra table structure.
//
// The Registry is the single source of table metadata for the engine. Entries
// are loaded lazily, kept until Refresh or Clear, and replaced as a whole so a
// reader never observes a half-updated schema.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
	"github.com/redbco/redb-cql/pkg/logger"
)

// SystemKeyspaces are hidden from keyspace listings.
var SystemKeyspaces = map[string]bool{
	"system":                true,
	"system_auth":           true,
	"system_schema":         true,
	"system_distributed":    true,
	"system_traces":         true,
	"system_views":          true,
	"system_virtual_schema": true,
}

// IsSystemKeyspace reports whether name is a built-in keyspace.
func IsSystemKeyspace(name string) bool {
	return SystemKeyspaces[name]
}

type tableKey struct {
	keyspace string
	table    string
}

// Registry caches keyspace listings and table schemas for one session.
type Registry struct {
	session adapter.Session
	logger  *logger.Logger

	mu        sync.RWMutex
	keyspaces []string
	tables    map[string][]string
	schemas   map[tableKey]*TableSchema
}

// NewRegistry creates an empty registry over session.
func NewRegistry(session adapter.Session, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		session: session,
		logger:  log,
		schemas: make(map[tableKey]*TableSchema),
	}
}

// ListKeyspaces returns user keyspaces sorted by name.
func (r *Registry) ListKeyspaces(ctx context.Context) ([]string, error) {
	if err := r.loadKeyspaces(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.keyspaces...), nil
}

// ListTables returns the tables of keyspace sorted by name.
func (r *Registry) ListTables(ctx context.Context, keyspace string) ([]string, error) {
	if err := r.loadKeyspaces(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables, ok := r.tables[keyspace]
	if !ok {
		return nil, adapter.NewSchemaNotFoundError(keyspace, "")
	}
	return append([]string(nil), tables...), nil
}

func (r *Registry) loadKeyspaces(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.tables != nil
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	metas, err := r.session.DescribeKeyspaces(ctx)
	if err != nil {
		if adapter.IsConnectionError(err) {
			return err
		}
		return adapter.NewIntrospectionError("*", "", err)
	}

	tables := make(map[string][]string, len(metas))
	keyspaces := make([]string, 0, len(metas))
	for _, m := range metas {
		names := append([]string(nil), m.Tables...)
		sort.Strings(names)
		tables[m.Name] = names
		if !IsSystemKeyspace(m.Name) {
			keyspaces = append(keyspaces, m.Name)
		}
	}
	sort.Strings(keyspaces)

	r.mu.Lock()
	r.keyspaces = keyspaces
	r.tables = tables
	r.mu.Unlock()

	r.logger.Debugf("Discovered %d keyspaces (%d user)", len(metas), len(keyspaces))
	return nil
}

// GetSchema returns the cached schema of keyspace.table, introspecting on a miss.
func (r *Registry) GetSchema(ctx context.Context, keyspace, table string) (*TableSchema, error) {
	key := tableKey{keyspace: keyspace, table: table}

	r.mu.RLock()
	cached, ok := r.schemas[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	meta, err := r.session.DescribeTable(ctx, keyspace, table)
	if err != nil {
		if adapter.IsNotFound(err) || adapter.IsConnectionError(err) {
			return nil, err
		}
		return nil, adapter.NewIntrospectionError(keyspace, table, err)
	}
	if meta == nil || len(meta.Columns) == 0 {
		return nil, adapter.NewSchemaNotFoundError(keyspace, table)
	}

	s, err := BuildSchema(meta)
	if err != nil {
		return nil, adapter.NewIntrospectionError(keyspace, table, err)
	}

	r.mu.Lock()
	r.schemas[key] = s
	r.mu.Unlock()

	r.logger.WithFields(map[string]string{
		"table":          s.QualifiedName(),
		"columns":        fmt.Sprint(len(s.Columns)),
		"partition_key":  strings.Join(s.PartitionKey, ","),
		"clustering_key": strings.Join(s.ClusteringKey, ","),
	}).Debug("Loaded table schema")

	return s, nil
}

// Refresh drops the cached schema of one table. It is safe to call while
// queries against the old schema are still running.
func (r *Registry) Refresh(keyspace, table string) {
	r.mu.Lock()
	delete(r.schemas, tableKey{keyspace: keyspace, table: table})
	r.mu.Unlock()
}

// RefreshKeyspaces drops the keyspace and table listings.
func (r *Registry) RefreshKeyspaces() {
	r.mu.Lock()
	r.keyspaces = nil
	r.tables = nil
	r.mu.Unlock()
}

// Clear drops everything. Called on reconnect and disconnect.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.keyspaces = nil
	r.tables = nil
	r.schemas = make(map[tableKey]*TableSchema)
	r.mu.Unlock()
}

var errNoPartitionKey = errors.New("table has no partition key")

// BuildSchema turns raw column metadata into a TableSchema. Columns are ordered
// partition keys, clustering keys, static columns, then regular columns.
func BuildSchema(meta *adapter.TableMetadata) (*TableSchema, error) {
	cols := make([]*ColumnDef, 0, len(meta.Columns))
	for _, m := range meta.Columns {
		dt, err := cqltype.Parse(m.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", m.Name, err)
		}
		kind := strings.ToLower(m.Kind)
		switch kind {
		case adapter.KindPartitionKey, adapter.KindClustering, adapter.KindStatic, adapter.KindRegular:
		default:
			return nil, fmt.Errorf("column %s: unknown kind %q", m.Name, m.Kind)
		}
		order := strings.ToUpper(m.ClusteringOrder)
		if kind == adapter.KindClustering && order != adapter.OrderDesc {
			order = adapter.OrderAsc
		}
		if kind != adapter.KindClustering {
			order = ""
		}
		isKey := kind == adapter.KindPartitionKey || kind == adapter.KindClustering
		cols = append(cols, &ColumnDef{
			Name:            m.Name,
			CQLType:         m.Type,
			Type:            dt,
			Kind:            kind,
			Position:        m.Position,
			ClusteringOrder: order,
			Nullable:        !isKey,
		})
	}

	sort.SliceStable(cols, func(i, j int) bool {
		ri, rj := kindRank(cols[i].Kind), kindRank(cols[j].Kind)
		if ri != rj {
			return ri < rj
		}
		if cols[i].IsPrimaryKey() && cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}
		return cols[i].Name < cols[j].Name
	})

	s := &TableSchema{Keyspace: meta.Keyspace, Table: meta.Table, Columns: cols}
	for _, c := range cols {
		switch c.Kind {
		case adapter.KindPartitionKey:
			s.PartitionKey = append(s.PartitionKey, c.Name)
		case adapter.KindClustering:
			s.ClusteringKey = append(s.ClusteringKey, c.Name)
		}
	}
	if len(s.PartitionKey) == 0 {
		return nil, errNoPartitionKey
	}
	return s, nil
}

func kindRank(kind string) int {
	switch kind {
	case adapter.KindPartitionKey:
		return 0
	case adapter.KindClustering:
		return 1
	case adapter.KindStatic:
		return 2
	}
	return 3
}
