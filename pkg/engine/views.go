package engine

import (
	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/query"
	"github.com/redbco/redb-cql/pkg/render"
)

// TableView describes the selected table for schema and form screens.
type TableView struct {
	Keyspace      string
	Table         string
	PartitionKey  []string
	ClusteringKey []string
	Columns       []ColumnView
	Fields        []Field
	Overlays      []*overlay.Overlay
	Hidden        []string
}

// ColumnView is one row of the table info view.
type ColumnView struct {
	Name            string
	Type            string
	Kind            string
	KeyRole         string
	ClusteringOrder string
	Hidden          bool
	HasOverlay      bool
}

// Page is one fetched page of the active table.
type Page struct {
	Keyspace string
	Table    string
	Filters  []query.Filter

	// Rows keeps native values so a row can be deleted as selected.
	Rows     []adapter.Row
	Grid     *render.Grid
	Extended *render.Extended

	PageSize   int
	PageNumber int
	// NextToken continues after this page; empty on the last page.
	NextToken string
}

// HasMore reports whether another page follows.
func (p *Page) HasMore() bool {
	return p != nil && p.NextToken != ""
}

// Row returns the native row at index i of the page.
func (p *Page) Row(i int) (adapter.Row, bool) {
	if p == nil || i < 0 || i >= len(p.Rows) {
		return nil, false
	}
	return p.Rows[i], true
}

// QueryResult is one page of a free-form statement.
type QueryResult struct {
	Statement string
	Columns   []adapter.ColumnInfo
	Rows      []adapter.Row
	Grid      *render.Grid
	Extended  *render.Extended
	PageSize  int
	NextToken string
	// Applied is set for statements that return no rows.
	Applied bool
}

// HasMore reports whether another page follows.
func (r *QueryResult) HasMore() bool {
	return r != nil && r.NextToken != ""
}

// MutationResult reports a successful insert or delete.
type MutationResult struct {
	Statement string
	// Generated holds key values the engine filled in, by column.
	Generated map[string]string
	// Page is the refetched first page.
	Page *Page
}

// RowCount is a bounded row count estimate.
type RowCount struct {
	Count int64
	// Capped is set when the count reached the limit, so the table holds at
	// least Count rows.
	Capped bool
}

// Field describes one input of the row form.
type Field struct {
	Name         string
	Type         string
	Tag          string
	Widget       string
	Kind         string
	KeyRole      string
	Required     bool
	ReadOnly     bool
	AutoGenerate bool
	Hidden       bool
	Placeholder  string
	// Min and Max bound fixed-width integers when HasRange is set.
	HasRange bool
	Min      int64
	Max      int64
	// Value is the current value as editable text; empty is null.
	Value string

	// Overlay sub-fields for map columns with a declared shape.
	SubFields []SubField
	Strict    bool
}

// SubField is one declared key of a map column.
type SubField struct {
	Key         string
	Type        string
	Tag         string
	Widget      string
	Placeholder string
	Required    bool
	Value       string
	Present     bool
}
