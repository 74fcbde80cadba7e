package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHosts(t *testing.T) {
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, splitHosts(" 10.0.0.1 , ,10.0.0.2,"))
	assert.Nil(t, splitHosts(" , "))
}
