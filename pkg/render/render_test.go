package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/schema"
)

func usersSchema(t *testing.T) *schema.TableSchema {
	t.Helper()
	s, err := schema.BuildSchema(&adapter.TableMetadata{
		Keyspace: "app",
		Table:    "users",
		Columns: []adapter.ColumnMetadata{
			{Name: "id", Type: "int", Kind: adapter.KindPartitionKey},
			{Name: "created", Type: "timestamp", Kind: adapter.KindRegular},
			{Name: "avatar", Type: "blob", Kind: adapter.KindRegular},
			{Name: "name", Type: "text", Kind: adapter.KindRegular},
		},
	})
	require.NoError(t, err)
	return s
}

func userRows(n int) []adapter.Row {
	rows := make([]adapter.Row, n)
	for i := range rows {
		rows[i] = adapter.Row{
			"id":      int32(i),
			"created": time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
			"avatar":  []byte{0xca, 0xfe},
			"name":    fmt.Sprintf("user%d", i),
		}
	}
	return rows
}

func TestToTable(t *testing.T) {
	s := usersSchema(t)
	rows := userRows(2)
	rows[1]["name"] = nil

	g := ToTable(rows, nil, s, []string{"avatar"})

	want := &Grid{
		Columns: []Column{{"id", "int"}, {"created", "timestamp"}, {"name", "text"}},
		Rows: [][]Cell{
			{{Text: "0"}, {Text: "2024-01-01T00:00:00Z"}, {Text: "user0"}},
			{{Text: "1"}, {Text: "2024-01-01T00:00:01Z"}, {Null: true}},
		},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("ToTable mismatch (-want +got):\n%s", diff)
	}
}

func TestToTableUsesResultColumns(t *testing.T) {
	s := usersSchema(t)
	rows := []adapter.Row{{"name": "a", "count": int64(3), "avatar": []byte{1}}}
	cols := []adapter.ColumnInfo{{Name: "name", Type: "varchar"}, {Name: "count", Type: "bigint"}, {Name: "avatar", Type: "blob"}}

	g := ToTable(rows, cols, s, nil)
	assert.Equal(t, []Column{{"name", "text"}, {"count", "bigint"}, {"avatar", "blob"}}, g.Columns)
	assert.Equal(t, []Cell{{Text: "a"}, {Text: "3"}, {Text: "0x01"}}, g.Rows[0])

	// no schema and no column list: row keys, sorted
	g = ToTable(rows, nil, nil, nil)
	assert.Equal(t, []Column{{Name: "avatar"}, {Name: "count"}, {Name: "name"}}, g.Columns)
	assert.Equal(t, "0x01", g.Rows[0][0].Text)
}

func TestToExtendedTruncates(t *testing.T) {
	s := usersSchema(t)

	e := ToExtended(userRows(25), nil, s, 0)
	assert.Len(t, e.Blocks, DefaultExtendedLimit)
	assert.Equal(t, 25, e.Total)
	assert.Equal(t, 15, e.Omitted)
	assert.Equal(t, "10 of 25 rows shown", e.Summary())
	assert.Equal(t, 1, e.Blocks[0].Index)
	assert.Equal(t, Pair{Column: "avatar", Type: "blob", Value: Cell{Text: "0xcafe"}}, e.Blocks[0].Pairs[1])

	e = ToExtended(userRows(3), nil, s, 5)
	assert.Len(t, e.Blocks, 3)
	assert.Zero(t, e.Omitted)
	assert.Equal(t, "3 rows", e.Summary())

	e = ToExtended(nil, nil, s, 5)
	assert.Empty(t, e.Blocks)
}

func TestWriteGrid(t *testing.T) {
	g := &Grid{
		Columns: []Column{{Name: "id"}, {Name: "note"}},
		Rows: [][]Cell{
			{{Text: "1"}, {Text: "line one\nline two"}},
			{{Text: "2"}, {Null: true}},
			{{Text: "3"}, {Text: strings.Repeat("x", 50)}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteGrid(&buf, g, 10))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "id   note"))
	assert.True(t, strings.HasPrefix(lines[1], "--   ----"))
	assert.Contains(t, lines[2], `line on...`)
	assert.Contains(t, lines[3], NullText)
	assert.Contains(t, lines[4], "xxxxxxx...")
}

func TestWriteExtended(t *testing.T) {
	s := usersSchema(t)
	var buf bytes.Buffer
	require.NoError(t, WriteExtended(&buf, ToExtended(userRows(12), nil, s, 2), 0))

	out := buf.String()
	assert.Contains(t, out, "-[ RECORD 1 ]-")
	assert.Contains(t, out, "-[ RECORD 2 ]-")
	assert.NotContains(t, out, "RECORD 3")
	assert.Contains(t, out, "name    | user1")
	assert.Contains(t, out, "(2 of 12 rows shown)")
}
