package cassandra

import (
	"context"

	"github.com/redbco/redb-cql/pkg/adapter"
)

// DescribeKeyspaces lists every keyspace with its tables, from system_schema.
func (s *Session) DescribeKeyspaces(ctx context.Context) ([]adapter.KeyspaceMetadata, error) {
	var (
		out   []adapter.KeyspaceMetadata
		index = make(map[string]int)
		name  string
	)

	iter := s.session.Query("SELECT keyspace_name FROM system_schema.keyspaces").WithContext(ctx).Iter()
	for iter.Scan(&name) {
		index[name] = len(out)
		out = append(out, adapter.KeyspaceMetadata{Name: name})
	}
	if err := iter.Close(); err != nil {
		return nil, s.introspectionError("", "", err)
	}

	var table string
	iter = s.session.Query("SELECT keyspace_name, table_name FROM system_schema.tables").WithContext(ctx).Iter()
	for iter.Scan(&name, &table) {
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, adapter.KeyspaceMetadata{Name: name})
		}
		out[i].Tables = append(out[i].Tables, table)
	}
	if err := iter.Close(); err != nil {
		return nil, s.introspectionError("", "", err)
	}

	s.logger.Debugf("Discovered %d keyspaces", len(out))
	return out, nil
}

// DescribeTable reads the column rows of one table from system_schema.columns.
func (s *Session) DescribeTable(ctx context.Context, keyspace, table string) (*adapter.TableMetadata, error) {
	iter := s.session.Query(`
		SELECT column_name, type, kind, position, clustering_order
		FROM system_schema.columns
		WHERE keyspace_name = ? AND table_name = ?
	`, keyspace, table).WithContext(ctx).Iter()

	meta := &adapter.TableMetadata{Keyspace: keyspace, Table: table}
	var (
		name, dataType, kind, order string
		position                    int
	)
	for iter.Scan(&name, &dataType, &kind, &position, &order) {
		meta.Columns = append(meta.Columns, adapter.ColumnMetadata{
			Name:            name,
			Type:            dataType,
			Kind:            kind,
			Position:        position,
			ClusteringOrder: order,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, s.introspectionError(keyspace, table, err)
	}

	if len(meta.Columns) == 0 {
		return nil, adapter.NewSchemaNotFoundError(keyspace, table)
	}
	return meta, nil
}

func (s *Session) introspectionError(keyspace, table string, err error) error {
	if isConnectionError(err) {
		return adapter.NewConnectionError(s.hosts, s.port, err)
	}
	return adapter.NewIntrospectionError(keyspace, table, err)
}
