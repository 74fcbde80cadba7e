package adapter

import (
	"fmt"
	"strings"
)

// StatementKind identifies how a Statement renders to CQL.
type StatementKind int

const (
	StatementSelect StatementKind = iota
	StatementInsert
	StatementDelete
	StatementCount
	StatementRaw
)

// String returns the lower-case verb of the statement kind.
func (k StatementKind) String() string {
	switch k {
	case StatementSelect:
		return "select"
	case StatementInsert:
		return "insert"
	case StatementDelete:
		return "delete"
	case StatementCount:
		return "count"
	case StatementRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Binding pairs a column with a native value bound to a marker.
type Binding struct {
	Column string
	Value  interface{}
}

// Statement is a fully validated query ready for execution.
type Statement struct {
	Kind     StatementKind
	Keyspace string
	Table    string

	// Columns selected; empty selects every column.
	Columns []string

	// Where holds equality restrictions for select and delete.
	Where []Binding

	// Values holds inserted columns.
	Values []Binding

	AllowFiltering bool

	// Limit bounds count statements; zero means no LIMIT clause.
	Limit int

	// Text is the verbatim statement for raw queries.
	Text string

	PageSize  int
	PageState []byte
}

// IsMutation reports whether the statement changes data.
func (s *Statement) IsMutation() bool {
	return s.Kind == StatementInsert || s.Kind == StatementDelete
}

// IsPaged reports whether the statement reads pages.
func (s *Statement) IsPaged() bool {
	return s.Kind == StatementSelect || s.Kind == StatementRaw
}

// CQL renders the statement with ? markers and returns the bound values in order.
// Identifiers are always quoted so mixed-case names survive.
func (s *Statement) CQL() (string, []interface{}) {
	switch s.Kind {
	case StatementRaw:
		return s.Text, nil

	case StatementInsert:
		cols := make([]string, len(s.Values))
		marks := make([]string, len(s.Values))
		args := make([]interface{}, len(s.Values))
		for i, b := range s.Values {
			cols[i] = QuoteIdentifier(b.Column)
			marks[i] = "?"
			args[i] = b.Value
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			s.qualifiedTable(), strings.Join(cols, ", "), strings.Join(marks, ", ")), args

	case StatementDelete:
		where, args := s.whereClause()
		return fmt.Sprintf("DELETE FROM %s%s", s.qualifiedTable(), where), args

	case StatementCount:
		where, args := s.whereClause()
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.qualifiedTable(), where)
		if s.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", s.Limit)
		}
		if s.AllowFiltering {
			query += " ALLOW FILTERING"
		}
		return query, args

	default:
		selection := "*"
		if len(s.Columns) > 0 {
			quoted := make([]string, len(s.Columns))
			for i, c := range s.Columns {
				quoted[i] = QuoteIdentifier(c)
			}
			selection = strings.Join(quoted, ", ")
		}
		where, args := s.whereClause()
		query := fmt.Sprintf("SELECT %s FROM %s%s", selection, s.qualifiedTable(), where)
		if s.AllowFiltering {
			query += " ALLOW FILTERING"
		}
		return query, args
	}
}

// String returns the CQL text without values.
func (s *Statement) String() string {
	query, _ := s.CQL()
	return query
}

func (s *Statement) qualifiedTable() string {
	if s.Keyspace == "" {
		return QuoteIdentifier(s.Table)
	}
	return QuoteIdentifier(s.Keyspace) + "." + QuoteIdentifier(s.Table)
}

func (s *Statement) whereClause() (string, []interface{}) {
	if len(s.Where) == 0 {
		return "", nil
	}
	conds := make([]string, len(s.Where))
	args := make([]interface{}, len(s.Where))
	for i, b := range s.Where {
		conds[i] = QuoteIdentifier(b.Column) + " = ?"
		args[i] = b.Value
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// QuoteIdentifier quotes a CQL identifier, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, `"`, `""`)
	return fmt.Sprintf(`"%s"`, name)
}
