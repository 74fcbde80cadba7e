// Package query builds legal CQL statements from a table schema and user input.
//
// Every builder validates before producing a statement: values are parsed with
// the column's type, primary key requirements are enforced, and filters that
// would scan every partition are refused unless the caller acknowledged the
// cost.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
	"github.com/redbco/redb-cql/pkg/schema"
)

// DefaultCountLimit bounds row count estimates.
const DefaultCountLimit = 10000

// Operator is a filter comparison. Only equality is supported.
type Operator string

// OpEq is the equality operator.
const OpEq Operator = "="

// Filter restricts a column to a value entered as text.
type Filter struct {
	Column   string
	Operator Operator
	Value    string
}

// Eq is shorthand for an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Operator: OpEq, Value: value}
}

// BuildSelect builds a paged SELECT.
//
// An empty filter list browses the table. Filters that leave a partition key
// column unrestricted need ALLOW FILTERING across partitions; unless
// acknowledgeFullScan is set that returns a FullScanError and nothing runs.
// Restricting the whole partition key keeps the query inside one partition,
// where ALLOW FILTERING is added silently if the remaining filters need it.
func BuildSelect(s *schema.TableSchema, filters []Filter, page *PageState, acknowledgeFullScan bool) (*adapter.Statement, error) {
	where, errs := bindFilters(s, filters)
	if len(errs) > 0 {
		return nil, errs.AsError()
	}

	stmt := &adapter.Statement{
		Kind:      adapter.StatementSelect,
		Keyspace:  s.Keyspace,
		Table:     s.Table,
		Where:     where,
		PageSize:  page.Size(),
		PageState: pageToken(page),
	}
	if len(where) == 0 {
		return stmt, nil
	}

	restricted := make(map[string]bool, len(where))
	for _, b := range where {
		restricted[b.Column] = true
	}

	var missing []string
	for _, pk := range s.PartitionKey {
		if !restricted[pk] {
			missing = append(missing, pk)
		}
	}
	if len(missing) > 0 {
		if !acknowledgeFullScan {
			return nil, adapter.NewFullScanError(s.Keyspace, s.Table, missing)
		}
		stmt.AllowFiltering = true
		return stmt, nil
	}

	stmt.AllowFiltering = needsFiltering(s, restricted)
	return stmt, nil
}

// needsFiltering reports whether restrictions inside one partition go beyond
// a clustering key prefix.
func needsFiltering(s *schema.TableSchema, restricted map[string]bool) bool {
	prefix := true
	for _, ck := range s.ClusteringKey {
		if restricted[ck] {
			if !prefix {
				return true
			}
			continue
		}
		prefix = false
	}
	for col := range restricted {
		c := s.Column(col)
		if !c.IsPrimaryKey() {
			return true
		}
	}
	return false
}

func bindFilters(s *schema.TableSchema, filters []Filter) ([]adapter.Binding, adapter.ValidationErrors) {
	var (
		where []adapter.Binding
		errs  adapter.ValidationErrors
		seen  = make(map[string]bool, len(filters))
	)
	for _, f := range filters {
		col := s.Column(f.Column)
		switch {
		case col == nil:
			errs = append(errs, adapter.NewValidationError(f.Column, "unknown column"))
			continue
		case f.Operator != "" && f.Operator != OpEq:
			errs = append(errs, adapter.NewValidationError(f.Column,
				fmt.Sprintf("operator %q is not supported, only equality filters are", f.Operator)))
			continue
		case seen[f.Column]:
			errs = append(errs, adapter.NewValidationError(f.Column, "column filtered more than once"))
			continue
		case f.Value == "":
			errs = append(errs, adapter.NewValidationError(f.Column, "filter value is required"))
			continue
		}
		seen[f.Column] = true

		v, err := col.ParseInput(f.Value)
		if err != nil {
			errs = append(errs, err.(*adapter.ValidationError))
			continue
		}
		where = append(where, adapter.Binding{Column: col.Name, Value: v})
	}
	return where, errs
}

// BuildInsert builds an INSERT from form values keyed by column name.
//
// Every primary key column must be present and non-empty. Empty values of other
// columns are left out of the statement. Counter columns cannot be inserted.
func BuildInsert(s *schema.TableSchema, values map[string]string) (*adapter.Statement, error) {
	var missing []string
	for _, name := range s.PrimaryKey() {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, adapter.NewMissingKeyError("insert", missing)
	}

	errs := unknownColumns(s, values)
	var bindings []adapter.Binding
	for _, col := range s.Columns {
		raw, ok := values[col.Name]
		if !ok {
			continue
		}
		switch {
		case col.IsPrimaryKey() && raw == "":
			errs = append(errs, adapter.NewValidationError(col.Name, "primary key column cannot be null"))
			continue
		case raw == "":
			continue
		case cqltype.IsCounter(col.Type):
			errs = append(errs, adapter.NewValidationError(col.Name, "counter columns cannot be inserted"))
			continue
		}

		v, err := col.ParseInput(raw)
		if err != nil {
			errs = append(errs, err.(*adapter.ValidationError))
			continue
		}
		bindings = append(bindings, adapter.Binding{Column: col.Name, Value: v})
	}
	if len(errs) > 0 {
		return nil, errs.AsError()
	}

	return &adapter.Statement{
		Kind:     adapter.StatementInsert,
		Keyspace: s.Keyspace,
		Table:    s.Table,
		Values:   bindings,
	}, nil
}

// BuildDelete builds a DELETE of exactly one row. Every partition and
// clustering column must be given.
func BuildDelete(s *schema.TableSchema, keyValues map[string]string) (*adapter.Statement, error) {
	var missing []string
	for _, name := range s.PrimaryKey() {
		if keyValues[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, adapter.NewMissingKeyError("delete", missing)
	}

	errs := unknownColumns(s, keyValues)
	for name := range keyValues {
		if col := s.Column(name); col != nil && !col.IsPrimaryKey() {
			errs = append(errs, adapter.NewValidationError(name, "not a primary key column"))
		}
	}

	var where []adapter.Binding
	for _, name := range s.PrimaryKey() {
		v, err := s.Column(name).ParseInput(keyValues[name])
		if err != nil {
			errs = append(errs, err.(*adapter.ValidationError))
			continue
		}
		where = append(where, adapter.Binding{Column: name, Value: v})
	}
	if len(errs) > 0 {
		sortErrors(errs)
		return nil, errs.AsError()
	}

	return &adapter.Statement{
		Kind:     adapter.StatementDelete,
		Keyspace: s.Keyspace,
		Table:    s.Table,
		Where:    where,
	}, nil
}

// BuildDeleteRow builds a DELETE for a row returned by a select, using its
// native key values.
func BuildDeleteRow(s *schema.TableSchema, row adapter.Row) (*adapter.Statement, error) {
	var (
		missing []string
		where   []adapter.Binding
	)
	for _, name := range s.PrimaryKey() {
		v, ok := row[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		where = append(where, adapter.Binding{Column: name, Value: v})
	}
	if len(missing) > 0 {
		return nil, adapter.NewMissingKeyError("delete", missing)
	}
	return &adapter.Statement{
		Kind:     adapter.StatementDelete,
		Keyspace: s.Keyspace,
		Table:    s.Table,
		Where:    where,
	}, nil
}

// BuildRaw wraps free-form CQL. The statement is paged like a select so a
// large result never loads at once.
func BuildRaw(text string, page *PageState) (*adapter.Statement, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	if text == "" {
		return nil, adapter.ErrEmptyStatement
	}
	return &adapter.Statement{
		Kind:      adapter.StatementRaw,
		Text:      text,
		PageSize:  page.Size(),
		PageState: pageToken(page),
	}, nil
}

// BuildCount builds a bounded COUNT(*) used as a row count estimate.
func BuildCount(s *schema.TableSchema, limit int) *adapter.Statement {
	if limit <= 0 {
		limit = DefaultCountLimit
	}
	return &adapter.Statement{
		Kind:     adapter.StatementCount,
		Keyspace: s.Keyspace,
		Table:    s.Table,
		Limit:    limit,
	}
}

func pageToken(page *PageState) []byte {
	if page.IsFirst() {
		return nil
	}
	return append([]byte(nil), page.Token...)
}

func unknownColumns(s *schema.TableSchema, values map[string]string) adapter.ValidationErrors {
	var unknown []string
	for name := range values {
		if s.Column(name) == nil {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	errs := make(adapter.ValidationErrors, 0, len(unknown))
	for _, name := range unknown {
		errs = append(errs, adapter.NewValidationError(name, "unknown column"))
	}
	return errs
}

func sortErrors(errs adapter.ValidationErrors) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Column < errs[j].Column })
}
