package overlay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/config"
)

// countingStore records List calls and can be made to fail.
type countingStore struct {
	Store
	lists int
	fail  error
}

func (s *countingStore) List(ctx context.Context, table string) ([]*Overlay, error) {
	s.lists++
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Store.List(ctx, table)
}

func (s *countingStore) Save(ctx context.Context, o *Overlay) error {
	if s.fail != nil {
		return s.fail
	}
	return s.Store.Save(ctx, o)
}

func newTestManager() (*Manager, *countingStore, *config.Config) {
	settings := config.InMemory(config.Defaults())
	store := &countingStore{Store: NewFileStore(settings)}
	return NewManager(store, nil), store, settings
}

func TestManagerDefineAndLookup(t *testing.T) {
	ctx := context.Background()
	m, store, settings := newTestManager()
	s := devicesSchema(t)

	got, err := m.GetOverlay(ctx, "iot.devices", "attrs")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, store.lists)

	input := sensorOverlay(true)
	input.Table = "ignored"
	defined, err := m.Define(ctx, s, input)
	require.NoError(t, err)
	assert.Equal(t, "iot.devices", defined.Table)
	assert.Equal(t, "ignored", input.Table, "the caller's overlay is not modified")

	got, err = m.GetOverlay(ctx, "iot.devices", "attrs")
	require.NoError(t, err)
	assert.Equal(t, defined, got)
	assert.Equal(t, 1, store.lists, "served from cache")

	// persisted in the settings file
	ms := settings.MapSchema("iot.devices", "attrs")
	require.NotNil(t, ms)
	assert.True(t, ms.Strict)
	assert.Len(t, ms.Fields, 3)

	// a fresh manager reads the same overlay back
	fresh := NewManager(NewFileStore(settings), nil)
	list, err := fresh.List(ctx, "iot.devices")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, defined, list[0])
}

func TestManagerRemove(t *testing.T) {
	ctx := context.Background()
	m, _, settings := newTestManager()
	s := devicesSchema(t)

	_, err := m.Define(ctx, s, sensorOverlay(false))
	require.NoError(t, err)
	_, err = m.Define(ctx, s, &Overlay{Column: "slots", Fields: []Field{{Key: "1", Type: "int"}}})
	require.NoError(t, err)

	list, err := m.List(ctx, "iot.devices")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "attrs", list[0].Column)
	assert.Equal(t, "slots", list[1].Column)

	require.NoError(t, m.Remove(ctx, "iot.devices", "attrs"))
	require.NoError(t, m.Remove(ctx, "iot.devices", "attrs"))
	got, err := m.GetOverlay(ctx, "iot.devices", "attrs")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, settings.MapSchema("iot.devices", "attrs"))
}

func TestManagerDefineRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	m, _, settings := newTestManager()
	s := devicesSchema(t)

	_, err := m.Define(ctx, s, &Overlay{Column: "name", Fields: []Field{{Key: "a", Type: "text"}}})
	require.Error(t, err)
	assert.Nil(t, settings.MapSchema("iot.devices", "name"))
}

func TestManagerStoreFailure(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager()
	s := devicesSchema(t)
	boom := errors.New("store unavailable")
	store.fail = boom

	_, err := m.GetOverlay(ctx, "iot.devices", "attrs")
	assert.ErrorIs(t, err, boom)

	_, err = m.Define(ctx, s, sensorOverlay(false))
	assert.ErrorIs(t, err, boom)

	store.fail = nil
	got, err := m.GetOverlay(ctx, "iot.devices", "attrs")
	require.NoError(t, err)
	assert.Nil(t, got, "failed define leaves nothing behind")
}

func TestManagerValidateRow(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager()
	s := devicesSchema(t)
	_, err := m.Define(ctx, s, sensorOverlay(true))
	require.NoError(t, err)

	errs, err := m.ValidateRow(ctx, s, map[string]string{"id": "x", "attrs": `{"scale": "big", "extra": "1"}`})
	require.NoError(t, err)
	assert.Equal(t, []string{"attrs[extra]", "attrs[scale]", "attrs[unit]"}, columns(errs))

	errs, err = m.ValidateRow(ctx, s, map[string]string{"attrs": ""})
	require.NoError(t, err)
	assert.Empty(t, errs, "a null map is not checked")

	errs, err = m.ValidateRow(ctx, s, map[string]string{"name": "x"})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestManagerInvalidate(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager()

	_, err := m.ForTable(ctx, "iot.devices")
	require.NoError(t, err)
	m.Invalidate("iot.devices")
	_, err = m.ForTable(ctx, "iot.devices")
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
}
