package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/engine"
	"github.com/redbco/redb-cql/pkg/health"
	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/render"
)

func TestProfiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Profiles(&buf, nil, ""))
	assert.Contains(t, buf.String(), "No profiles found")

	buf.Reset()
	require.NoError(t, Profiles(&buf, []config.Profile{
		{Name: "local", Hosts: []string{"localhost"}},
		{Name: "prod", Hosts: []string{"a", "b"}, Port: 9142, Username: "app", SSL: config.SSL{Enabled: true}},
	}, "prod"))
	out := buf.String()
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "9042")
	assert.Contains(t, out, "a,b")
	assert.Regexp(t, `\*\s+prod`, out)
}

func TestChecks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Checks(&buf, []*health.Check{
		{Name: "cluster", Status: health.StatusHealthy, Message: "cassandra 4.1.3"},
		{Name: "overlay-store", Status: health.StatusUnhealthy, Message: "connection refused"},
	}))
	out := buf.String()
	assert.Regexp(t, `cluster\s+healthy\s+0s\s+cassandra 4.1.3`, out)
	assert.Regexp(t, `overlay-store\s+unhealthy`, out)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	err := Table(&buf, &engine.TableView{
		Keyspace:      "shop",
		Table:         "events",
		PartitionKey:  []string{"tenant"},
		ClusteringKey: []string{"seq"},
		Columns: []engine.ColumnView{
			{Name: "tenant", Type: "int", KeyRole: "PK"},
			{Name: "attrs", Type: "map<text, text>", HasOverlay: true},
		},
		Overlays: []*overlay.Overlay{{Column: "attrs", Fields: []overlay.Field{{Key: "unit", Type: "text", Required: true}}}},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Table: shop.events")
	assert.Contains(t, out, "Clustering key: (seq)")
	assert.Regexp(t, `attrs\s+map<text, text>\s+-\s+yes`, out)
	assert.Regexp(t, `attrs\s+unit\s+text\s+yes`, out)
}

func TestPage(t *testing.T) {
	p := &engine.Page{
		Rows: []adapter.Row{{"id": int32(1)}},
		Grid: &render.Grid{
			Columns: []render.Column{{Name: "id", Type: "int"}},
			Rows:    [][]render.Cell{{{Text: "1"}}},
		},
		PageSize:   10,
		PageNumber: 2,
		NextToken:  "abc",
	}
	var buf bytes.Buffer
	require.NoError(t, Page(&buf, p, false, 0))
	out := buf.String()
	assert.Contains(t, out, "Page 2, 1 rows (page size 10)")
	assert.Contains(t, out, "--page-token=abc")

	buf.Reset()
	require.NoError(t, Page(&buf, &engine.Page{}, false, 0))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestMutationAndCount(t *testing.T) {
	var buf bytes.Buffer
	Mutation(&buf, "inserted", &engine.MutationResult{Generated: map[string]string{"id": "x"}})
	Count(&buf, "shop.events", &engine.RowCount{Count: 10000, Capped: true})
	Count(&buf, "shop.users", &engine.RowCount{Count: 3})
	out := buf.String()
	assert.Contains(t, out, "Row inserted.")
	assert.Contains(t, out, "Generated id = x")
	assert.Contains(t, out, "at least 10000 rows")
	assert.Contains(t, out, "shop.users holds 3 rows")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	Error(&buf, adapter.ValidationErrors{
		adapter.NewValidationError("seq", "not an integer"),
		adapter.NewValidationError("attrs[unit]", "required key is missing"),
	})
	assert.Equal(t, "Error: invalid input\n  attrs[unit]: required key is missing\n  seq: not an integer\n", buf.String())

	buf.Reset()
	Error(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}
