package interactive

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/adapter/adaptertest"
	"github.com/redbco/redb-cql/pkg/engine"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
		err  bool
	}{
		{line: "use shop.events", want: []string{"use", "shop.events"}},
		{line: `insert note="two words"  seq=3`, want: []string{"insert", "note=two words", "seq=3"}},
		{line: `filter note='it\'s'`, want: []string{"filter", "note=it's"}},
		{line: `filter path=a\b`, want: []string{"filter", `path=a\b`}},
		{line: `insert note="open`, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newShell(t *testing.T) (*Shell, *bytes.Buffer, *adaptertest.Session) {
	t.Helper()
	s := adaptertest.NewSession().
		AddTable("shop", "events",
			adapter.ColumnMetadata{Name: "tenant", Type: "int", Kind: adapter.KindPartitionKey},
			adapter.ColumnMetadata{Name: "seq", Type: "int", Kind: adapter.KindClustering, ClusteringOrder: "asc"},
			adapter.ColumnMetadata{Name: "note", Type: "text", Kind: adapter.KindRegular},
		)
	for i := 0; i < 30; i++ {
		s.AddRows("shop", "events", adapter.Row{
			"tenant": int32(0),
			"seq":    int32(i),
			"note":   fmt.Sprintf("event %d", i),
		})
	}
	var out bytes.Buffer
	return NewShell(engine.New(s, engine.WithPageSize(25)), "shop", &out), &out, s
}

func exec(t *testing.T, sh *Shell, line string) {
	t.Helper()
	more, err := sh.Exec(context.Background(), line)
	require.NoError(t, err, line)
	require.True(t, more)
}

func TestShellPaging(t *testing.T) {
	sh, out, _ := newShell(t)
	assert.Equal(t, "redb-cql> ", sh.Prompt())

	exec(t, sh, "use events")
	assert.Equal(t, "redb-cql shop.events> ", sh.Prompt())

	out.Reset()
	exec(t, sh, "browse")
	assert.Contains(t, out.String(), "Page 1, 25 rows")
	assert.Contains(t, out.String(), "Type 'next' for more rows.")

	out.Reset()
	exec(t, sh, "next")
	assert.Contains(t, out.String(), "Page 2, 5 rows")
	assert.Equal(t, "redb-cql shop.events p2> ", sh.Prompt())

	out.Reset()
	exec(t, sh, "next")
	assert.Contains(t, out.String(), "Already on the last page.")

	out.Reset()
	exec(t, sh, "state")
	assert.Contains(t, out.String(), "State: paginating")
}

func TestShellFilter(t *testing.T) {
	sh, out, _ := newShell(t)
	exec(t, sh, "use shop.events")

	_, err := sh.Exec(context.Background(), "filter note=x")
	assert.True(t, adapter.IsFullScanError(err))
	assert.Contains(t, err.Error(), allowFiltering)

	out.Reset()
	exec(t, sh, "filter tenant=0 seq=4")
	assert.Contains(t, out.String(), "event 4")
	assert.Equal(t, engine.StateFiltering, sh.engine.State())

	exec(t, sh, "filter")
	assert.Equal(t, engine.StateBrowsing, sh.engine.State())
}

func TestShellMutations(t *testing.T) {
	sh, out, s := newShell(t)
	exec(t, sh, "use events")

	out.Reset()
	exec(t, sh, `insert tenant=1 seq=100 note="late event"`)
	assert.Contains(t, out.String(), "Row inserted.")
	assert.Len(t, s.Rows("shop", "events"), 31)

	exec(t, sh, "browse")
	out.Reset()
	exec(t, sh, "delete-row 1")
	assert.Contains(t, out.String(), "Row deleted.")
	assert.Len(t, s.Rows("shop", "events"), 30)

	_, err := sh.Exec(context.Background(), "delete-row 99")
	assert.EqualError(t, err, "no row 99 on the current page")

	_, err = sh.Exec(context.Background(), "insert tenant=1 seq=x")
	assert.Equal(t, map[string]string{"seq": `"x" is not an integer`}, adapter.ValidationDetails(err))
}

func TestShellCommands(t *testing.T) {
	sh, out, s := newShell(t)

	more, err := sh.Exec(context.Background(), "exit")
	require.NoError(t, err)
	assert.False(t, more)

	_, err = sh.Exec(context.Background(), "bogus")
	assert.EqualError(t, err, "unknown command 'bogus'. Type 'help' for available commands")

	out.Reset()
	exec(t, sh, "tables")
	assert.Contains(t, out.String(), "events")

	s.OnRaw("SELECT release_version FROM system.local", &adapter.ResultSet{
		Columns: []adapter.ColumnInfo{{Name: "release_version", Type: "text"}},
		Rows:    []adapter.Row{{"release_version": "4.1.3"}},
	})
	out.Reset()
	exec(t, sh, "query SELECT release_version FROM system.local")
	assert.Contains(t, out.String(), "4.1.3")

	out.Reset()
	exec(t, sh, "pagesize 50")
	assert.Contains(t, out.String(), "Page size is 50.")

	out.Reset()
	exec(t, sh, "help")
	assert.Contains(t, out.String(), "delete-row <n>")
}
