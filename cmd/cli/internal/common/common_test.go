package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTable(t *testing.T) {
	ks, table, err := SplitTable("shop.events", "other")
	require.NoError(t, err)
	assert.Equal(t, "shop", ks)
	assert.Equal(t, "events", table)

	ks, table, err = SplitTable("events", "shop")
	require.NoError(t, err)
	assert.Equal(t, "shop", ks)
	assert.Equal(t, "events", table)

	_, _, err = SplitTable("events", "")
	assert.Error(t, err)

	_, _, err = SplitTable("shop.", "")
	assert.Error(t, err)
}
