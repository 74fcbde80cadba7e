package adapter

import (
	"context"
)

// Session is an open connection to one Cassandra cluster.
// Implementations must be safe for concurrent use.
type Session interface {
	// Execute runs the statement and returns at most one page of rows.
	// Failures are reported as ExecutionError or ConnectionError.
	Execute(ctx context.Context, stmt *Statement) (*ResultSet, error)

	// DescribeKeyspaces lists every keyspace with its table names,
	// system keyspaces included.
	DescribeKeyspaces(ctx context.Context) ([]KeyspaceMetadata, error)

	// DescribeTable returns raw column metadata for one table.
	// It returns SchemaNotFoundError when the table does not exist.
	DescribeTable(ctx context.Context, keyspace, table string) (*TableMetadata, error)
}

// Closer is implemented by sessions holding network resources.
type Closer interface {
	Close() error
}

// Column kinds as reported by system_schema.columns.
const (
	KindPartitionKey = "partition_key"
	KindClustering   = "clustering"
	KindStatic       = "static"
	KindRegular      = "regular"
)

// Clustering orders.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// KeyspaceMetadata names a keyspace and its tables.
type KeyspaceMetadata struct {
	Name   string
	Tables []string
}

// TableMetadata is the unprocessed column list of a table.
type TableMetadata struct {
	Keyspace string
	Table    string
	Columns  []ColumnMetadata
}

// ColumnMetadata mirrors one row of system_schema.columns.
type ColumnMetadata struct {
	Name            string
	Type            string
	Kind            string
	Position        int
	ClusteringOrder string
}

// ColumnInfo describes a column of a result set.
type ColumnInfo struct {
	Name string
	Type string
}

// Row maps column names to native driver values.
type Row map[string]interface{}

// ResultSet is a single page of rows.
type ResultSet struct {
	Columns []ColumnInfo
	Rows    []Row

	// PageState continues the query; empty when this is the last page.
	PageState []byte

	// Applied reports the outcome of a mutation without result columns.
	Applied bool
}

// HasMorePages reports whether a continuation token was returned.
func (r *ResultSet) HasMorePages() bool {
	return r != nil && len(r.PageState) > 0
}

// ColumnNames returns result-set column names in order.
func (r *ResultSet) ColumnNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}
