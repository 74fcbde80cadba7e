package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/adapter"
)

func TestClampPageSize(t *testing.T) {
	tests := map[int]int{
		-1:   DefaultPageSize,
		0:    DefaultPageSize,
		1:    10,
		10:   10,
		11:   25,
		50:   50,
		99:   100,
		5000: 100,
	}
	for in, want := range tests {
		assert.Equal(t, want, ClampPageSize(in), "ClampPageSize(%d)", in)
	}
}

func TestPageStateEncoding(t *testing.T) {
	p := &PageState{Token: []byte{0x00, 0xff, ':', 'x'}, PageSize: 25}

	decoded, err := DecodePageState(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p.Token, decoded.Token)
	assert.Equal(t, 25, decoded.PageSize)

	first, err := DecodePageState("")
	require.NoError(t, err)
	assert.True(t, first.IsFirst())
	assert.Equal(t, DefaultPageSize, first.Size())

	fresh, err := DecodePageState(FirstPage(10).Encode())
	require.NoError(t, err)
	assert.True(t, fresh.IsFirst())
	assert.Equal(t, 10, fresh.Size())

	for _, bad := range []string{"%%%", "bm9jb2xvbg", "eDp0b2s"} {
		_, err := DecodePageState(bad)
		assert.ErrorIs(t, err, adapter.ErrInvalidPageState, bad)
	}
}

func TestPageStateNext(t *testing.T) {
	var nilPage *PageState
	assert.True(t, nilPage.IsFirst())
	assert.Equal(t, DefaultPageSize, nilPage.Size())
	assert.Equal(t, "", nilPage.Encode())

	p := FirstPage(25)
	assert.Nil(t, p.Next(nil))

	next := p.Next([]byte("abc"))
	require.NotNil(t, next)
	assert.Equal(t, 25, next.Size())
	assert.False(t, next.IsFirst())
}
