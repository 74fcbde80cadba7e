package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOverlayKeyWins(t *testing.T) {
	o, err := decodeOverlay("ks.t", "attrs", []byte(`{"table":"old.t","column":"old","fields":[{"key":"a","type":"int","required":true}],"strict":true}`))
	require.NoError(t, err)
	assert.Equal(t, "ks.t", o.Table)
	assert.Equal(t, "attrs", o.Column)
	assert.True(t, o.Strict)
	assert.Equal(t, []Field{{Key: "a", Type: "int", Required: true}}, o.Fields)

	_, err = decodeOverlay("ks.t", "attrs", []byte("{"))
	assert.Error(t, err)

	assert.Equal(t, DefaultRedisPrefix+"ks.t", NewRedisStore(nil, "").key("ks.t"))
}
