package schema

import (
	"github.com/datastax/go-cassandra-native-protocol/datatype"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
)

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name            string
	CQLType         string
	Type            datatype.DataType
	Kind            string
	Position        int
	ClusteringOrder string
	Nullable        bool

	// Hidden is a local display annotation, never part of cached metadata.
	Hidden bool
}

// IsPartitionKey reports partition key columns.
func (c *ColumnDef) IsPartitionKey() bool {
	return c.Kind == adapter.KindPartitionKey
}

// IsClusteringKey reports clustering columns.
func (c *ColumnDef) IsClusteringKey() bool {
	return c.Kind == adapter.KindClustering
}

// IsPrimaryKey reports partition and clustering columns.
func (c *ColumnDef) IsPrimaryKey() bool {
	return c.IsPartitionKey() || c.IsClusteringKey()
}

// ParseInput converts form text for this column. Failures are ValidationErrors.
func (c *ColumnDef) ParseInput(raw string) (interface{}, error) {
	v, err := cqltype.ParseValue(c.Type, raw)
	if err != nil {
		return nil, adapter.NewValidationError(c.Name, err.Error())
	}
	return v, nil
}

// Format renders a native value for display or editing.
func (c *ColumnDef) Format(v interface{}) string {
	return cqltype.FormatValue(c.Type, v)
}

// KeyRole is a short label for the column's role in the primary key.
func (c *ColumnDef) KeyRole() string {
	switch c.Kind {
	case adapter.KindPartitionKey:
		return "PK"
	case adapter.KindClustering:
		return "CK " + c.ClusteringOrder
	case adapter.KindStatic:
		return "static"
	}
	return ""
}

// TableSchema is the parsed structure of one table. Cached values are shared
// and must not be modified.
type TableSchema struct {
	Keyspace      string
	Table         string
	Columns       []*ColumnDef
	PartitionKey  []string
	ClusteringKey []string
}

// QualifiedName returns "keyspace.table".
func (s *TableSchema) QualifiedName() string {
	return QualifiedName(s.Keyspace, s.Table)
}

// QualifiedName joins a keyspace and table name.
func QualifiedName(keyspace, table string) string {
	return keyspace + "." + table
}

// Column returns the named column or nil.
func (s *TableSchema) Column(name string) *ColumnDef {
	for _, c := range s.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PrimaryKey returns partition key columns followed by clustering columns.
func (s *TableSchema) PrimaryKey() []string {
	out := make([]string, 0, len(s.PartitionKey)+len(s.ClusteringKey))
	out = append(out, s.PartitionKey...)
	return append(out, s.ClusteringKey...)
}

// ColumnNames returns column names in display order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// WithHidden returns a copy with the named columns flagged hidden.
// The receiver is left untouched.
func (s *TableSchema) WithHidden(hidden []string) *TableSchema {
	set := make(map[string]bool, len(hidden))
	for _, h := range hidden {
		set[h] = true
	}
	out := *s
	out.Columns = make([]*ColumnDef, len(s.Columns))
	for i, c := range s.Columns {
		cc := *c
		cc.Hidden = set[c.Name]
		out.Columns[i] = &cc
	}
	return &out
}

// VisibleColumns returns the columns not flagged hidden.
func (s *TableSchema) VisibleColumns() []*ColumnDef {
	out := make([]*ColumnDef, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}
