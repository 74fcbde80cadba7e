package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c.Settings())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestProfilesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, c.SaveProfile(Profile{Name: "prod", Hosts: []string{"10.0.0.1"}, Port: 9042}))
	require.NoError(t, c.SaveProfile(Profile{Name: "dev", Hosts: []string{"localhost"}}))
	require.NoError(t, c.SaveProfile(Profile{Name: "prod", Hosts: []string{"10.0.0.2"}, Port: 9142}))
	require.NoError(t, c.SetLastProfile("prod"))

	assert.Error(t, c.SaveProfile(Profile{Name: " "}))
	assert.Error(t, c.SaveProfile(Profile{Name: "nohosts"}))

	reloaded, err := Load(path)
	require.NoError(t, err)
	profiles := reloaded.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "dev", profiles[0].Name)
	assert.Equal(t, []string{"10.0.0.2"}, profiles[1].Hosts)

	last, ok := reloaded.Profile("")
	require.True(t, ok)
	assert.Equal(t, 9142, last.Port)

	found, err := reloaded.DeleteProfile("prod")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, reloaded.Settings().LastProfile)
	_, ok = reloaded.Profile("prod")
	assert.False(t, ok)

	found, err = reloaded.DeleteProfile("prod")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHiddenColumns(t *testing.T) {
	c := InMemory(Defaults())

	assert.Empty(t, c.HiddenColumns("ks.t"))
	require.NoError(t, c.SetColumnHidden("ks.t", "b", true))
	require.NoError(t, c.SetColumnHidden("ks.t", "a", true))
	assert.Equal(t, []string{"a", "b"}, c.HiddenColumns("ks.t"))

	require.NoError(t, c.SetColumnHidden("ks.t", "a", false))
	require.NoError(t, c.SetColumnHidden("ks.t", "b", false))
	assert.Empty(t, c.HiddenColumns("ks.t"))
	assert.Empty(t, c.Settings().Tables, "empty annotations are pruned")

	// unhiding something never hidden leaves no trace
	require.NoError(t, c.SetColumnHidden("ks.other", "x", false))
	assert.Empty(t, c.Settings().Tables)
}

func TestMapSchemas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)

	ms := &MapSchema{Strict: true, Fields: []MapField{{Key: "unit", Type: "text", Required: true}, {Key: "scale", Type: "int"}}}
	require.NoError(t, c.SetMapSchema("ks.t", "attrs", ms))
	require.NoError(t, c.SetColumnHidden("ks.t", "attrs", true))

	// stored copies are independent of the caller's value
	ms.Fields[0].Key = "changed"

	reloaded, err := Load(path)
	require.NoError(t, err)
	got := reloaded.MapSchema("ks.t", "attrs")
	require.NotNil(t, got)
	assert.True(t, got.Strict)
	assert.Equal(t, "unit", got.Fields[0].Key)
	assert.Len(t, reloaded.MapSchemas("ks.t"), 1)
	assert.Nil(t, reloaded.MapSchema("ks.t", "missing"))

	require.NoError(t, reloaded.SetMapSchema("ks.t", "attrs", nil))
	assert.Nil(t, reloaded.MapSchema("ks.t", "attrs"))
	assert.Equal(t, []string{"attrs"}, reloaded.HiddenColumns("ks.t"))
}
