package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdentifier("users"))
	assert.Equal(t, `"UserID"`, QuoteIdentifier("UserID"))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
}

func TestStatementCQL(t *testing.T) {
	t.Run("select all", func(t *testing.T) {
		stmt := &Statement{Kind: StatementSelect, Keyspace: "shop", Table: "orders"}
		query, args := stmt.CQL()
		assert.Equal(t, `SELECT * FROM "shop"."orders"`, query)
		assert.Empty(t, args)
	})

	t.Run("select with filters", func(t *testing.T) {
		stmt := &Statement{
			Kind:           StatementSelect,
			Keyspace:       "shop",
			Table:          "orders",
			Columns:        []string{"id", "total"},
			Where:          []Binding{{Column: "customer", Value: "ann"}, {Column: "day", Value: 3}},
			AllowFiltering: true,
		}
		query, args := stmt.CQL()
		assert.Equal(t, `SELECT "id", "total" FROM "shop"."orders" WHERE "customer" = ? AND "day" = ? ALLOW FILTERING`, query)
		assert.Equal(t, []interface{}{"ann", 3}, args)
	})

	t.Run("insert", func(t *testing.T) {
		stmt := &Statement{
			Kind:     StatementInsert,
			Keyspace: "shop",
			Table:    "orders",
			Values:   []Binding{{Column: "id", Value: int32(1)}, {Column: "note", Value: "x"}},
		}
		query, args := stmt.CQL()
		assert.Equal(t, `INSERT INTO "shop"."orders" ("id", "note") VALUES (?, ?)`, query)
		assert.Equal(t, []interface{}{int32(1), "x"}, args)
		assert.True(t, stmt.IsMutation())
		assert.False(t, stmt.IsPaged())
	})

	t.Run("delete", func(t *testing.T) {
		stmt := &Statement{
			Kind:     StatementDelete,
			Keyspace: "shop",
			Table:    "orders",
			Where:    []Binding{{Column: "id", Value: int32(1)}},
		}
		query, args := stmt.CQL()
		assert.Equal(t, `DELETE FROM "shop"."orders" WHERE "id" = ?`, query)
		assert.Equal(t, []interface{}{int32(1)}, args)
	})

	t.Run("count", func(t *testing.T) {
		stmt := &Statement{Kind: StatementCount, Keyspace: "shop", Table: "orders", Limit: 10000}
		assert.Equal(t, `SELECT COUNT(*) FROM "shop"."orders" LIMIT 10000`, stmt.String())
	})

	t.Run("raw", func(t *testing.T) {
		stmt := &Statement{Kind: StatementRaw, Text: "SELECT now() FROM system.local"}
		query, args := stmt.CQL()
		assert.Equal(t, "SELECT now() FROM system.local", query)
		assert.Nil(t, args)
		assert.True(t, stmt.IsPaged())
	})
}

func TestResultSetHelpers(t *testing.T) {
	var nilSet *ResultSet
	assert.False(t, nilSet.HasMorePages())
	assert.Nil(t, nilSet.ColumnNames())

	rs := &ResultSet{
		Columns:   []ColumnInfo{{Name: "a", Type: "int"}, {Name: "b", Type: "text"}},
		PageState: []byte{1},
	}
	assert.True(t, rs.HasMorePages())
	assert.Equal(t, []string{"a", "b"}, rs.ColumnNames())
}
