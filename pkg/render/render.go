// Package render turns result rows into display models: a grid with one row
// per result row, and an extended view with one block of column/value pairs
// per row.
package render

import (
	"fmt"
	"sort"

	"github.com/datastax/go-cassandra-native-protocol/datatype"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
	"github.com/redbco/redb-cql/pkg/schema"
)

// DefaultExtendedLimit is the number of rows shown in the extended view.
const DefaultExtendedLimit = 10

// Cell is one formatted value. Null distinguishes a missing value from an
// empty string.
type Cell struct {
	Text string
	Null bool
}

// Column is a displayed column with its CQL type text.
type Column struct {
	Name string
	Type string
}

// Grid is the tabular view.
type Grid struct {
	Columns []Column
	Rows    [][]Cell
}

// Pair is one column of an extended block.
type Pair struct {
	Column string
	Type   string
	Value  Cell
}

// Block is one row of the extended view. Index is the row's position in the
// page, starting at 1.
type Block struct {
	Index int
	Pairs []Pair
}

// Extended is the vertical view of up to a limited number of rows.
type Extended struct {
	Blocks  []Block
	Total   int
	Omitted int
}

// Summary describes how many rows are shown, for example "10 of 25 rows shown".
func (e *Extended) Summary() string {
	if e.Omitted == 0 {
		return fmt.Sprintf("%d rows", e.Total)
	}
	return fmt.Sprintf("%d of %d rows shown", len(e.Blocks), e.Total)
}

type column struct {
	name     string
	typeText string
	dt       datatype.DataType
}

// ToTable builds the grid view. Columns follow the result set, or the schema
// when the result set carries none; hidden columns are left out.
func ToTable(rows []adapter.Row, columns []adapter.ColumnInfo, s *schema.TableSchema, hidden []string) *Grid {
	skip := make(map[string]bool, len(hidden))
	for _, h := range hidden {
		skip[h] = true
	}
	var cols []column
	for _, c := range resolveColumns(rows, columns, s) {
		if !skip[c.name] {
			cols = append(cols, c)
		}
	}

	g := &Grid{Columns: make([]Column, len(cols)), Rows: make([][]Cell, len(rows))}
	for i, c := range cols {
		g.Columns[i] = Column{Name: c.name, Type: c.typeText}
	}
	for r, row := range rows {
		cells := make([]Cell, len(cols))
		for i, c := range cols {
			cells[i] = cell(c, row)
		}
		g.Rows[r] = cells
	}
	return g
}

// ToExtended builds the extended view of at most limit rows; limit <= 0
// uses DefaultExtendedLimit.
func ToExtended(rows []adapter.Row, columns []adapter.ColumnInfo, s *schema.TableSchema, limit int) *Extended {
	if limit <= 0 {
		limit = DefaultExtendedLimit
	}
	cols := resolveColumns(rows, columns, s)

	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}
	e := &Extended{
		Blocks:  make([]Block, len(shown)),
		Total:   len(rows),
		Omitted: len(rows) - len(shown),
	}
	for r, row := range shown {
		pairs := make([]Pair, len(cols))
		for i, c := range cols {
			pairs[i] = Pair{Column: c.name, Type: c.typeText, Value: cell(c, row)}
		}
		e.Blocks[r] = Block{Index: r + 1, Pairs: pairs}
	}
	return e
}

func cell(c column, row adapter.Row) Cell {
	v, ok := row[c.name]
	if !ok || v == nil {
		return Cell{Null: true}
	}
	return Cell{Text: cqltype.FormatValue(c.dt, v)}
}

// resolveColumns picks the display columns and the type used to format each.
// The schema type wins; result-set type text is the fallback for computed
// columns and raw queries.
func resolveColumns(rows []adapter.Row, columns []adapter.ColumnInfo, s *schema.TableSchema) []column {
	var out []column
	switch {
	case len(columns) > 0:
		out = make([]column, len(columns))
		for i, c := range columns {
			out[i] = column{name: c.Name, typeText: c.Type}
		}
	case s != nil:
		out = make([]column, len(s.Columns))
		for i, c := range s.Columns {
			out[i] = column{name: c.Name}
		}
	default:
		seen := make(map[string]bool)
		for _, row := range rows {
			for name := range row {
				if !seen[name] {
					seen[name] = true
					out = append(out, column{name: name})
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	}

	for i := range out {
		if s != nil {
			if def := s.Column(out[i].name); def != nil {
				out[i].dt = def.Type
				out[i].typeText = cqltype.Format(def.Type)
				continue
			}
		}
		if out[i].typeText != "" {
			if dt, err := cqltype.Parse(out[i].typeText); err == nil {
				out[i].dt = dt
			}
		}
	}
	return out
}
