package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(detail string) CheckFunc {
	return func(context.Context) (string, error) { return detail, nil }
}

func TestChecker(t *testing.T) {
	ctx := context.Background()
	c := NewChecker()
	assert.Equal(t, StatusHealthy, c.GetOverallStatus())

	got := c.RunCheck(ctx, "cluster", ok("cassandra 4.1.3"))
	assert.Equal(t, StatusHealthy, got.Status)
	assert.Equal(t, "cassandra 4.1.3", got.Message)

	c.RunCheck(ctx, "keyring", ok(""))
	c.RunCheck(ctx, "overlay-store", func(context.Context) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	})
	assert.Equal(t, StatusDegraded, c.GetOverallStatus())

	checks := c.GetAllChecks()
	require.Len(t, checks, 3)
	assert.Equal(t, "cluster", checks[0].Name)
	assert.Equal(t, "OK", checks[1].Message)
	assert.Equal(t, StatusUnhealthy, checks[2].Status)
	assert.Equal(t, "dial tcp: connection refused", checks[2].Message)
}

func TestAllFailing(t *testing.T) {
	c := NewChecker()
	c.RunCheck(context.Background(), "cluster", func(context.Context) (string, error) {
		return "", errors.New("no hosts")
	})
	assert.Equal(t, StatusUnhealthy, c.GetOverallStatus())
	assert.Equal(t, "unhealthy", c.GetOverallStatus().String())
}
