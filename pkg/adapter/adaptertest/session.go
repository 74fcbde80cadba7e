// Package adaptertest provides an in-memory adapter.Session for tests.
//
// It understands the statement kinds the query builder produces: paged selects
// with equality filters, upserting inserts, deletes by key and bounded counts.
// Raw statements return whatever was registered with OnRaw.
package adaptertest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/redbco/redb-cql/pkg/adapter"
)

type table struct {
	meta adapter.TableMetadata
	rows []adapter.Row
}

// Session is a fake cluster holding tables in memory. Safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	order    []string
	tables   map[string]*table
	extra    map[string][]string
	raw      map[string]*adapter.ResultSet
	failures []error
	executed []*adapter.Statement

	// DescribeCalls counts DescribeTable invocations.
	DescribeCalls int
}

// NewSession creates an empty fake session.
func NewSession() *Session {
	return &Session{
		tables: make(map[string]*table),
		extra:  make(map[string][]string),
		raw:    make(map[string]*adapter.ResultSet),
	}
}

func key(keyspace, name string) string {
	return keyspace + "." + name
}

// AddTable registers a table with its columns.
func (s *Session) AddTable(keyspace, name string, columns ...adapter.ColumnMetadata) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(keyspace, name)
	if _, ok := s.tables[k]; !ok {
		s.order = append(s.order, k)
	}
	s.tables[k] = &table{meta: adapter.TableMetadata{Keyspace: keyspace, Table: name, Columns: columns}}
	return s
}

// AddKeyspace registers a keyspace without tables.
func (s *Session) AddKeyspace(keyspace string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.extra[keyspace]; !ok {
		s.extra[keyspace] = nil
	}
	return s
}

// AddRows appends rows to a table without key checks.
func (s *Session) AddRows(keyspace, name string, rows ...adapter.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[key(keyspace, name)]
	t.rows = append(t.rows, rows...)
}

// Rows returns a copy of the stored rows.
func (s *Session) Rows(keyspace, name string) []adapter.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key(keyspace, name)]
	if !ok {
		return nil
	}
	return append([]adapter.Row(nil), t.rows...)
}

// OnRaw registers the result of a raw statement.
func (s *Session) OnRaw(text string, rs *adapter.ResultSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[text] = rs
}

// FailNext makes the next call return err.
func (s *Session) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

// Executed returns the statements seen so far.
func (s *Session) Executed() []*adapter.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*adapter.Statement(nil), s.executed...)
}

func (s *Session) popFailure() error {
	if len(s.failures) == 0 {
		return nil
	}
	err := s.failures[0]
	s.failures = s.failures[1:]
	return err
}

// DescribeKeyspaces implements adapter.Session.
func (s *Session) DescribeKeyspaces(ctx context.Context) ([]adapter.KeyspaceMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.popFailure(); err != nil {
		return nil, err
	}

	byName := make(map[string]*adapter.KeyspaceMetadata)
	var out []*adapter.KeyspaceMetadata
	get := func(name string) *adapter.KeyspaceMetadata {
		if m, ok := byName[name]; ok {
			return m
		}
		m := &adapter.KeyspaceMetadata{Name: name}
		byName[name] = m
		out = append(out, m)
		return m
	}
	for _, k := range s.order {
		t := s.tables[k]
		m := get(t.meta.Keyspace)
		m.Tables = append(m.Tables, t.meta.Table)
	}
	for ks := range s.extra {
		get(ks)
	}

	result := make([]adapter.KeyspaceMetadata, len(out))
	for i, m := range out {
		result[i] = *m
	}
	return result, nil
}

// DescribeTable implements adapter.Session.
func (s *Session) DescribeTable(ctx context.Context, keyspace, name string) (*adapter.TableMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DescribeCalls++
	if err := s.popFailure(); err != nil {
		return nil, err
	}
	t, ok := s.tables[key(keyspace, name)]
	if !ok {
		return nil, adapter.NewSchemaNotFoundError(keyspace, name)
	}
	meta := t.meta
	meta.Columns = append([]adapter.ColumnMetadata(nil), t.meta.Columns...)
	return &meta, nil
}

// Execute implements adapter.Session.
func (s *Session) Execute(ctx context.Context, stmt *adapter.Statement) (*adapter.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = append(s.executed, stmt)
	if err := s.popFailure(); err != nil {
		return nil, adapter.WrapExecutionError(stmt.String(), err)
	}

	if stmt.Kind == adapter.StatementRaw {
		rs, ok := s.raw[stmt.Text]
		if !ok {
			return nil, adapter.WrapExecutionError(stmt.Text, errors.New("no result registered for raw statement"))
		}
		return page(rs.Columns, rs.Rows, stmt)
	}

	t, ok := s.tables[key(stmt.Keyspace, stmt.Table)]
	if !ok {
		return nil, adapter.WrapExecutionError(stmt.String(),
			fmt.Errorf("unconfigured table %s", stmt.Table))
	}

	switch stmt.Kind {
	case adapter.StatementInsert:
		row := make(adapter.Row, len(stmt.Values))
		for _, b := range stmt.Values {
			row[b.Column] = b.Value
		}
		t.upsert(row)
		return &adapter.ResultSet{Applied: true}, nil

	case adapter.StatementDelete:
		kept := t.rows[:0]
		for _, r := range t.rows {
			if !matches(r, stmt.Where) {
				kept = append(kept, r)
			}
		}
		t.rows = kept
		return &adapter.ResultSet{Applied: true}, nil

	case adapter.StatementCount:
		n := 0
		for _, r := range t.rows {
			if matches(r, stmt.Where) {
				n++
			}
		}
		if stmt.Limit > 0 && n > stmt.Limit {
			n = stmt.Limit
		}
		return &adapter.ResultSet{
			Columns: []adapter.ColumnInfo{{Name: "count", Type: "bigint"}},
			Rows:    []adapter.Row{{"count": int64(n)}},
		}, nil

	default:
		var rows []adapter.Row
		for _, r := range t.rows {
			if matches(r, stmt.Where) {
				rows = append(rows, project(r, stmt.Columns))
			}
		}
		return page(t.columns(stmt.Columns), rows, stmt)
	}
}

func (t *table) columns(selected []string) []adapter.ColumnInfo {
	var out []adapter.ColumnInfo
	for _, c := range t.meta.Columns {
		if len(selected) > 0 && !contains(selected, c.Name) {
			continue
		}
		out = append(out, adapter.ColumnInfo{Name: c.Name, Type: c.Type})
	}
	return out
}

func (t *table) upsert(row adapter.Row) {
	var keys []adapter.Binding
	for _, c := range t.meta.Columns {
		if c.Kind == adapter.KindPartitionKey || c.Kind == adapter.KindClustering {
			keys = append(keys, adapter.Binding{Column: c.Name, Value: row[c.Name]})
		}
	}
	for i, r := range t.rows {
		if matches(r, keys) {
			merged := make(adapter.Row, len(r))
			for k, v := range r {
				merged[k] = v
			}
			for k, v := range row {
				merged[k] = v
			}
			t.rows[i] = merged
			return
		}
	}
	t.rows = append(t.rows, row)
}

func page(columns []adapter.ColumnInfo, rows []adapter.Row, stmt *adapter.Statement) (*adapter.ResultSet, error) {
	offset := 0
	if len(stmt.PageState) > 0 {
		n, err := strconv.Atoi(string(stmt.PageState))
		if err != nil || n < 0 {
			return nil, adapter.WrapExecutionError(stmt.String(), errors.New("invalid paging state"))
		}
		offset = n
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	end := len(rows)
	if stmt.PageSize > 0 && offset+stmt.PageSize < end {
		end = offset + stmt.PageSize
	}

	rs := &adapter.ResultSet{Columns: columns, Rows: append([]adapter.Row(nil), rows[offset:end]...)}
	if end < len(rows) {
		rs.PageState = []byte(strconv.Itoa(end))
	}
	return rs, nil
}

func matches(row adapter.Row, where []adapter.Binding) bool {
	for _, b := range where {
		if !equal(row[b.Column], b.Value) {
			return false
		}
	}
	return true
}

func equal(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func project(row adapter.Row, columns []string) adapter.Row {
	out := make(adapter.Row, len(row))
	for k, v := range row {
		if len(columns) == 0 || contains(columns, k) {
			out[k] = v
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
