package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/adapter/adaptertest"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/query"
)

func newSession(events int) *adaptertest.Session {
	s := adaptertest.NewSession().
		AddTable("shop", "events",
			adapter.ColumnMetadata{Name: "tenant", Type: "int", Kind: adapter.KindPartitionKey},
			adapter.ColumnMetadata{Name: "seq", Type: "int", Kind: adapter.KindClustering, ClusteringOrder: "asc"},
			adapter.ColumnMetadata{Name: "note", Type: "text", Kind: adapter.KindRegular},
			adapter.ColumnMetadata{Name: "attrs", Type: "map<text, text>", Kind: adapter.KindRegular},
		).
		AddTable("shop", "users",
			adapter.ColumnMetadata{Name: "id", Type: "uuid", Kind: adapter.KindPartitionKey},
			adapter.ColumnMetadata{Name: "name", Type: "text", Kind: adapter.KindRegular},
		).
		AddKeyspace("system")
	for i := 0; i < events; i++ {
		s.AddRows("shop", "events", adapter.Row{
			"tenant": int32(i % 2),
			"seq":    int32(i),
			"note":   fmt.Sprintf("event %d", i),
		})
	}
	return s
}

func selectEvents(t *testing.T, e *Engine) *TableView {
	t.Helper()
	tv, err := e.SelectTable(context.Background(), "shop", "events")
	require.NoError(t, err)
	return tv
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	e := New(newSession(0))
	assert.Equal(t, StateConnected, e.State())

	keyspaces, err := e.Keyspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, keyspaces)

	tables, err := e.Tables(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "users"}, tables)

	_, err = e.SelectTable(ctx, "shop", "missing")
	assert.True(t, adapter.IsNotFound(err))
	assert.Equal(t, StateConnected, e.State())

	_, err = e.Browse(ctx)
	assert.ErrorIs(t, err, adapter.ErrNoTableSelected)
}

func TestSelectTable(t *testing.T) {
	e := New(newSession(0))
	tv := selectEvents(t, e)

	assert.Equal(t, StateSchemaLoaded, e.State())
	assert.Nil(t, e.CurrentPage())
	assert.Equal(t, []string{"tenant"}, tv.PartitionKey)
	assert.Equal(t, []string{"seq"}, tv.ClusteringKey)

	names := make([]string, len(tv.Columns))
	for i, c := range tv.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"tenant", "seq", "attrs", "note"}, names)
	assert.Equal(t, "PK", tv.Columns[0].KeyRole)
	assert.Equal(t, "map<text, text>", tv.Columns[2].Type)

	require.Len(t, tv.Fields, 4)
	assert.True(t, tv.Fields[0].Required)
	assert.True(t, tv.Fields[0].HasRange)
	assert.False(t, tv.Fields[3].Required)
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	e := New(newSession(60), WithPageSize(25))
	selectEvents(t, e)

	p, err := e.Browse(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateBrowsing, e.State())
	assert.Equal(t, 1, p.PageNumber)
	assert.Equal(t, 25, p.PageSize)

	seen := make(map[int32]bool)
	collect := func(p *Page) {
		for _, r := range p.Rows {
			seq := r["seq"].(int32)
			assert.False(t, seen[seq], "row %d returned twice", seq)
			seen[seq] = true
		}
	}
	collect(p)
	for p.HasMore() {
		p, err = e.NextPage(ctx)
		require.NoError(t, err)
		collect(p)
	}
	assert.Len(t, seen, 60)
	assert.Equal(t, 3, p.PageNumber)
	assert.Len(t, p.Rows, 10)
	assert.Equal(t, StatePaginating, e.State())

	_, err = e.NextPage(ctx)
	assert.ErrorIs(t, err, adapter.ErrNoMorePages)

	p, err = e.FirstPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.PageNumber)
	assert.Equal(t, StateBrowsing, e.State())
}

func TestResumePage(t *testing.T) {
	ctx := context.Background()
	e := New(newSession(30), WithPageSize(10))
	selectEvents(t, e)

	first, err := e.Browse(ctx)
	require.NoError(t, err)

	// a fresh engine continues from the token alone
	other := New(newSession(30))
	selectEvents(t, other)
	p, err := other.ResumePage(ctx, nil, false, first.NextToken)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PageNumber)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, int32(10), p.Rows[0]["seq"])

	_, err = other.ResumePage(ctx, nil, false, "!!")
	assert.ErrorIs(t, err, adapter.ErrInvalidPageState)
}

func TestFullScanNeedsAcknowledgment(t *testing.T) {
	ctx := context.Background()
	session := newSession(10)
	e := New(session)
	selectEvents(t, e)
	_, err := e.Browse(ctx)
	require.NoError(t, err)
	before := len(session.Executed())

	filters := []query.Filter{query.Eq("note", "event 3")}
	_, err = e.ApplyFilters(ctx, filters, false)
	var fullScan *adapter.FullScanError
	require.ErrorAs(t, err, &fullScan)
	assert.Equal(t, []string{"tenant"}, fullScan.MissingColumns)
	assert.Len(t, session.Executed(), before, "nothing runs without acknowledgment")
	assert.Equal(t, StateBrowsing, e.State())

	p, err := e.ApplyFilters(ctx, filters, true)
	require.NoError(t, err)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, StateFiltering, e.State())
	assert.True(t, session.Executed()[before].AllowFiltering)

	// the whole partition key needs no acknowledgment
	p, err = e.ApplyFilters(ctx, []query.Filter{query.Eq("tenant", "1")}, false)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 5)

	p, err = e.ClearFilters(ctx)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 10)
	assert.Equal(t, StateBrowsing, e.State())
}

func TestInvalidFilter(t *testing.T) {
	ctx := context.Background()
	session := newSession(3)
	e := New(session)
	selectEvents(t, e)

	_, err := e.ApplyFilters(ctx, []query.Filter{query.Eq("tenant", "abc"), query.Eq("nope", "1")}, false)
	require.True(t, adapter.IsValidationError(err))
	details := adapter.ValidationDetails(err)
	assert.Contains(t, details, "tenant")
	assert.Contains(t, details, "nope")
	assert.Empty(t, session.Executed())
	assert.Equal(t, StateSchemaLoaded, e.State())
}

func TestFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	session := newSession(60)
	e := New(session, WithPageSize(25))
	selectEvents(t, e)
	first, err := e.Browse(ctx)
	require.NoError(t, err)

	session.FailNext(errors.New("timeout"))
	_, err = e.NextPage(ctx)
	assert.ErrorIs(t, err, adapter.ErrExecutionFailed)
	assert.Equal(t, StateBrowsing, e.State())
	assert.Same(t, first, e.CurrentPage())

	p, err := e.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.PageNumber)
}

func TestSetPageSize(t *testing.T) {
	ctx := context.Background()
	e := New(newSession(60))
	selectEvents(t, e)

	p, err := e.SetPageSize(ctx, 20)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 25, e.PageSize())

	_, err = e.Browse(ctx)
	require.NoError(t, err)
	p, err = e.SetPageSize(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 10)
	assert.Equal(t, 10, e.PageSize())
}

func TestInsertGeneratesKeyAndRefetches(t *testing.T) {
	ctx := context.Background()
	session := newSession(0)
	e := New(session)
	_, err := e.SelectTable(ctx, "shop", "users")
	require.NoError(t, err)

	res, err := e.Insert(ctx, map[string]string{"name": "ada"})
	require.NoError(t, err)
	require.Contains(t, res.Generated, "id")
	_, err = gocql.ParseUUID(res.Generated["id"])
	require.NoError(t, err)

	require.NotNil(t, res.Page)
	require.Len(t, res.Page.Rows, 1)
	assert.Equal(t, "ada", res.Page.Rows[0]["name"])
	assert.Equal(t, StateBrowsing, e.State())

	stored := session.Rows("shop", "users")
	require.Len(t, stored, 1)
	assert.Equal(t, res.Generated["id"], fmt.Sprint(stored[0]["id"]))
}

func TestInsertValidation(t *testing.T) {
	ctx := context.Background()
	session := newSession(0)
	e := New(session)
	selectEvents(t, e)

	_, err := e.Insert(ctx, map[string]string{"tenant": "1"})
	assert.True(t, adapter.IsMissingKeyError(err))

	_, err = e.Insert(ctx, map[string]string{"tenant": "1", "seq": "x"})
	assert.Equal(t, map[string]string{"seq": `"x" is not an integer`}, adapter.ValidationDetails(err))
	assert.Empty(t, session.Executed())
	assert.Equal(t, StateSchemaLoaded, e.State())
}

func TestInsertChecksOverlays(t *testing.T) {
	ctx := context.Background()
	session := newSession(0)
	settings := config.InMemory(config.Defaults())
	e := New(session, WithOverlays(overlay.NewManager(overlay.NewFileStore(settings), nil)))
	selectEvents(t, e)

	_, err := e.DefineOverlay(ctx, &overlay.Overlay{
		Column: "attrs",
		Strict: true,
		Fields: []overlay.Field{{Key: "unit", Type: "text", Required: true}, {Key: "scale", Type: "int"}},
	})
	require.NoError(t, err)

	_, err = e.Insert(ctx, map[string]string{
		"tenant": "1",
		"seq":    "bad",
		"attrs":  `{"scale": "big", "color": "red"}`,
	})
	details := adapter.ValidationDetails(err)
	assert.Len(t, details, 4)
	assert.Contains(t, details, "seq")
	assert.Contains(t, details, "attrs[unit]")
	assert.Contains(t, details, "attrs[scale]")
	assert.Contains(t, details, "attrs[color]")
	assert.Empty(t, session.Executed())

	res, err := e.Insert(ctx, map[string]string{"tenant": "1", "seq": "1", "attrs": `{"unit": "cm", "scale": "2"}`})
	require.NoError(t, err)
	require.Len(t, res.Page.Rows, 1)

	fields, err := e.Fields(ctx, res.Page.Rows[0])
	require.NoError(t, err)
	var attrs Field
	for _, f := range fields {
		if f.Name == "attrs" {
			attrs = f
		}
	}
	assert.True(t, attrs.Strict)
	require.Len(t, attrs.SubFields, 2)
	assert.Equal(t, SubField{Key: "unit", Type: "text", Tag: "text", Widget: "text", Required: true, Value: "cm", Present: true},
		withoutPlaceholder(attrs.SubFields[0]))
	assert.Equal(t, "2", attrs.SubFields[1].Value)
	assert.Equal(t, "1", fields[0].Value)

	tv, err := e.Describe(ctx)
	require.NoError(t, err)
	assert.Len(t, tv.Overlays, 1)
	assert.True(t, tv.Columns[2].HasOverlay)

	require.NoError(t, e.RemoveOverlay(ctx, "attrs"))
	list, err := e.Overlays(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func withoutPlaceholder(sf SubField) SubField {
	sf.Placeholder = ""
	return sf
}

func TestOverlayWithoutStore(t *testing.T) {
	e := New(newSession(0))
	selectEvents(t, e)
	_, err := e.DefineOverlay(context.Background(), &overlay.Overlay{Column: "attrs"})
	assert.ErrorIs(t, err, ErrNoOverlayStore)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	session := newSession(4)
	e := New(session)
	selectEvents(t, e)
	p, err := e.Browse(ctx)
	require.NoError(t, err)

	_, err = e.Delete(ctx, map[string]string{"tenant": "0"})
	assert.True(t, adapter.IsMissingKeyError(err))

	res, err := e.Delete(ctx, map[string]string{"tenant": "0", "seq": "0"})
	require.NoError(t, err)
	assert.Len(t, res.Page.Rows, 3)

	row, ok := p.Row(1)
	require.True(t, ok)
	res, err = e.DeleteRow(ctx, row)
	require.NoError(t, err)
	assert.Len(t, res.Page.Rows, 2)
	assert.Len(t, session.Rows("shop", "events"), 2)
}

func TestMutationRefetchFailure(t *testing.T) {
	ctx := context.Background()
	session := newSession(2)
	e := New(session)
	selectEvents(t, e)
	_, err := e.Browse(ctx)
	require.NoError(t, err)

	// the delete succeeds, the refetch after it fails
	n := len(session.Executed())
	_, err = e.Delete(ctx, map[string]string{"tenant": "1", "seq": "1"})
	require.NoError(t, err)
	require.Len(t, session.Executed(), n+2)

	// a second engine whose session fails after the delete itself
	session.AddRows("shop", "events", adapter.Row{"tenant": int32(1), "seq": int32(8)})
	failing := &failAfter{Session: session, after: 1}
	e2 := New(failing)
	selectEvents(t, e2)
	res, err := e2.Delete(ctx, map[string]string{"tenant": "1", "seq": "8"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.Page)
	assert.ErrorIs(t, err, adapter.ErrExecutionFailed)
	assert.Equal(t, StateSchemaLoaded, e2.State())
	assert.Len(t, session.Rows("shop", "events"), 1)
}

// failAfter fails every Execute after the first n.
type failAfter struct {
	*adaptertest.Session
	after int
	calls int
}

func (f *failAfter) Execute(ctx context.Context, stmt *adapter.Statement) (*adapter.ResultSet, error) {
	f.calls++
	if f.calls > f.after {
		return nil, adapter.WrapExecutionError(stmt.String(), errors.New("unavailable"))
	}
	return f.Session.Execute(ctx, stmt)
}

func TestHiddenColumns(t *testing.T) {
	ctx := context.Background()
	settings := config.InMemory(config.Defaults())
	e := New(newSession(2), WithPreferences(settings))
	selectEvents(t, e)
	_, err := e.Browse(ctx)
	require.NoError(t, err)

	table, err := e.SetColumnHidden("note", true)
	require.NoError(t, err)
	assert.True(t, table.Column("note").Hidden)
	assert.Equal(t, []string{"note"}, settings.HiddenColumns("shop.events"))

	for _, c := range e.CurrentPage().Grid.Columns {
		assert.NotEqual(t, "note", c.Name)
	}
	assert.Contains(t, e.CurrentPage().Rows[0], "note", "hidden columns are still fetched")

	_, err = e.SetColumnHidden("nope", true)
	assert.True(t, adapter.IsValidationError(err))

	// a new engine over the same settings starts with the column hidden
	other := New(newSession(0), WithPreferences(settings))
	tv := selectEvents(t, other)
	assert.Equal(t, []string{"note"}, tv.Hidden)
}

func TestRawQuery(t *testing.T) {
	ctx := context.Background()
	session := newSession(0)
	session.OnRaw("SELECT release_version FROM system.local", &adapter.ResultSet{
		Columns: []adapter.ColumnInfo{{Name: "release_version", Type: "text"}},
		Rows:    []adapter.Row{{"release_version": "4.1.3"}},
	})
	session.OnRaw("ALTER TABLE shop.events ADD extra int", &adapter.ResultSet{})
	e := New(session)

	res, err := e.RawQuery(ctx, "SELECT release_version FROM system.local;", "")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "4.1.3", res.Grid.Rows[0][0].Text)
	assert.False(t, res.HasMore())

	selectEvents(t, e)
	calls := session.DescribeCalls
	res, err = e.RawQuery(ctx, "ALTER TABLE shop.events ADD extra int", "")
	require.NoError(t, err)
	assert.True(t, res.Applied)

	// schema cache was dropped
	_, err = e.SelectTable(ctx, "shop", "events")
	require.NoError(t, err)
	assert.Equal(t, calls+1, session.DescribeCalls)

	_, err = e.RawQuery(ctx, "  ; ", "")
	assert.ErrorIs(t, err, adapter.ErrEmptyStatement)

	_, err = e.RawQuery(ctx, "SELECT * FROM nowhere", "")
	assert.ErrorIs(t, err, adapter.ErrExecutionFailed)
}

func TestEstimateRowCount(t *testing.T) {
	ctx := context.Background()
	e := New(newSession(12))
	selectEvents(t, e)

	c, err := e.EstimateRowCount(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, &RowCount{Count: 12}, c)

	c, err = e.EstimateRowCount(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, &RowCount{Count: 5, Capped: true}, c)
}

func TestRefreshAndDisconnect(t *testing.T) {
	ctx := context.Background()
	session := newSession(3)
	e := New(session)
	selectEvents(t, e)
	_, err := e.Browse(ctx)
	require.NoError(t, err)

	calls := session.DescribeCalls
	tv, err := e.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "events", tv.Table)
	assert.Equal(t, calls+1, session.DescribeCalls)
	assert.Equal(t, StateSchemaLoaded, e.State())
	assert.Nil(t, e.CurrentPage())

	require.NoError(t, e.Disconnect())
	assert.Equal(t, StateDisconnected, e.State())
	assert.Nil(t, e.Table())

	_, err = e.Browse(ctx)
	assert.ErrorIs(t, err, ErrDisconnected)
	_, err = e.Keyspaces(ctx)
	assert.ErrorIs(t, err, ErrDisconnected)
	require.NoError(t, e.Disconnect())
}
