package engine

import (
	"context"
	"strings"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/query"
	"github.com/redbco/redb-cql/pkg/render"
)

// Browse fetches the first page of the active table without filters.
func (e *Engine) Browse(ctx context.Context) (*Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	return e.commit(ctx, nil, false, query.FirstPage(e.pageSize), 1)
}

// ClearFilters drops the filters and fetches the first page.
func (e *Engine) ClearFilters(ctx context.Context) (*Page, error) {
	return e.Browse(ctx)
}

// ApplyFilters fetches the first page matching filters. Filters that leave
// part of the partition key open return a FullScanError unless
// acknowledgeFullScan is set; nothing is executed in that case.
func (e *Engine) ApplyFilters(ctx context.Context, filters []query.Filter, acknowledgeFullScan bool) (*Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	return e.commit(ctx, filters, acknowledgeFullScan, query.FirstPage(e.pageSize), 1)
}

// NextPage fetches the page after the current one.
func (e *Engine) NextPage(ctx context.Context) (*Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	v := e.view
	if v.last == nil {
		return nil, adapter.ErrNoMorePages
	}
	next := v.page.Next(v.last.PageState)
	if next == nil {
		return nil, adapter.ErrNoMorePages
	}
	return e.commit(ctx, v.filters, v.ack, next, v.pageNum+1)
}

// FirstPage fetches the first page again with the current filters.
func (e *Engine) FirstPage(ctx context.Context) (*Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	return e.commit(ctx, e.view.filters, e.view.ack, query.FirstPage(e.pageSize), 1)
}

// ResumePage fetches the page a token from Page.NextToken points at, with the
// given filters. The token carries its page size. Resumed pages report page
// number 0 since earlier pages were not seen.
func (e *Engine) ResumePage(ctx context.Context, filters []query.Filter, acknowledgeFullScan bool, token string) (*Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	page, err := query.DecodePageState(token)
	if err != nil {
		return nil, err
	}
	num := 0
	if page.IsFirst() {
		num = 1
		if token == "" {
			page = query.FirstPage(e.pageSize)
		}
	}
	return e.commit(ctx, filters, acknowledgeFullScan, page, num)
}

// SetPageSize changes the page size, clamped to query.PageSizes. With a page
// already shown, the first page is fetched again at the new size.
func (e *Engine) SetPageSize(ctx context.Context, n int) (*Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connected(); err != nil {
		return nil, err
	}
	size := query.ClampPageSize(n)
	if e.view == nil || e.view.rendered == nil {
		e.pageSize = size
		return nil, nil
	}
	p, err := e.commit(ctx, e.view.filters, e.view.ack, query.FirstPage(size), 1)
	if err != nil {
		return nil, err
	}
	e.pageSize = size
	return p, nil
}

// commit fetches a page and, only on success, makes it the current view.
func (e *Engine) commit(ctx context.Context, filters []query.Filter, ack bool, page *query.PageState, num int) (*Page, error) {
	v, err := e.fetch(ctx, e.view, filters, ack, page, num)
	if err != nil {
		return nil, err
	}
	e.view = v
	e.state = stateOf(v)
	return v.rendered, nil
}

func (e *Engine) fetch(ctx context.Context, cur *view, filters []query.Filter, ack bool, page *query.PageState, num int) (*view, error) {
	stmt, err := query.BuildSelect(cur.base, filters, page, ack)
	if err != nil {
		return nil, err
	}
	rs, err := e.execute(ctx, stmt)
	if err != nil {
		return nil, err
	}

	next := *cur
	next.filters = append([]query.Filter(nil), filters...)
	next.ack = ack
	next.page = page
	next.pageNum = num
	next.last = rs
	next.rendered = e.renderPage(&next, rs)
	return &next, nil
}

func stateOf(v *view) State {
	switch {
	case v.rendered == nil:
		return StateSchemaLoaded
	case v.pageNum != 1:
		return StatePaginating
	case len(v.filters) > 0:
		return StateFiltering
	}
	return StateBrowsing
}

func (e *Engine) renderPage(v *view, rs *adapter.ResultSet) *Page {
	var hidden []string
	for _, c := range v.table.Columns {
		if c.Hidden {
			hidden = append(hidden, c.Name)
		}
	}
	p := &Page{
		Keyspace:   v.base.Keyspace,
		Table:      v.base.Table,
		Filters:    v.filters,
		Rows:       rs.Rows,
		Grid:       render.ToTable(rs.Rows, rs.Columns, v.table, hidden),
		Extended:   render.ToExtended(rs.Rows, rs.Columns, v.table, e.extendedLimit),
		PageSize:   v.page.Size(),
		PageNumber: v.pageNum,
	}
	if next := v.page.Next(rs.PageState); next != nil {
		p.NextToken = next.Encode()
	}
	return p
}

// RawQuery runs free-form CQL and returns one page of its result. An empty
// token starts from the beginning at the current page size. Schema changing
// statements drop the cached schemas; the active table keeps its schema until
// Refresh.
func (e *Engine) RawQuery(ctx context.Context, text, token string) (*QueryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connected(); err != nil {
		return nil, err
	}

	page := query.FirstPage(e.pageSize)
	if token != "" {
		var err error
		if page, err = query.DecodePageState(token); err != nil {
			return nil, err
		}
	}
	stmt, err := query.BuildRaw(text, page)
	if err != nil {
		return nil, err
	}
	rs, err := e.execute(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if changesSchema(stmt.Text) {
		e.logger.Info("Schema changed by statement, clearing schema cache")
		e.registry.Clear()
	}

	res := &QueryResult{
		Statement: stmt.Text,
		Columns:   rs.Columns,
		Rows:      rs.Rows,
		Grid:      render.ToTable(rs.Rows, rs.Columns, nil, nil),
		Extended:  render.ToExtended(rs.Rows, rs.Columns, nil, e.extendedLimit),
		PageSize:  page.Size(),
		Applied:   rs.Applied || len(rs.Columns) == 0,
	}
	if next := page.Next(rs.PageState); next != nil {
		res.NextToken = next.Encode()
	}
	return res, nil
}

func changesSchema(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "CREATE", "ALTER", "DROP":
		return true
	}
	return false
}

// EstimateRowCount counts rows of the active table up to limit
// (query.DefaultCountLimit when limit <= 0).
func (e *Engine) EstimateRowCount(ctx context.Context, limit int) (*RowCount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}

	stmt := query.BuildCount(e.view.base, limit)
	rs, err := e.execute(ctx, stmt)
	if err != nil {
		return nil, err
	}
	var count int64
	if len(rs.Rows) > 0 {
		name := "count"
		if len(rs.Columns) > 0 {
			name = rs.Columns[0].Name
		}
		count = toInt64(rs.Rows[0][name])
	}
	return &RowCount{Count: count, Capped: count >= int64(stmt.Limit)}, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	}
	return 0
}
