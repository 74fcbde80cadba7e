package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStatement(t *testing.T) {
	got, err := readStatement(strings.NewReader("-- recent events\nSELECT *\n  FROM shop.events\n  WHERE tenant = 1;\n"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\n  FROM shop.events\n  WHERE tenant = 1;", got)
}
