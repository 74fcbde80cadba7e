package overlay

import (
	"context"
	"sort"

	"github.com/redbco/redb-cql/pkg/config"
)

// Store persists overlays. Load returns nil and no error when a column has
// no overlay. List returns a table's overlays sorted by column.
type Store interface {
	Load(ctx context.Context, table, column string) (*Overlay, error)
	Save(ctx context.Context, o *Overlay) error
	Delete(ctx context.Context, table, column string) error
	List(ctx context.Context, table string) ([]*Overlay, error)
}

// MapSchemaSettings is the part of the settings file holding map column
// shapes.
type MapSchemaSettings interface {
	MapSchema(table, column string) *config.MapSchema
	MapSchemas(table string) map[string]*config.MapSchema
	SetMapSchema(table, column string, ms *config.MapSchema) error
}

// FileStore keeps overlays in the settings file next to the other column
// annotations.
type FileStore struct {
	settings MapSchemaSettings
}

// NewFileStore creates a store over the settings file.
func NewFileStore(settings MapSchemaSettings) *FileStore {
	return &FileStore{settings: settings}
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, table, column string) (*Overlay, error) {
	return fromMapSchema(table, column, s.settings.MapSchema(table, column)), nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, o *Overlay) error {
	return s.settings.SetMapSchema(o.Table, o.Column, toMapSchema(o))
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, table, column string) error {
	if s.settings.MapSchema(table, column) == nil {
		return nil
	}
	return s.settings.SetMapSchema(table, column, nil)
}

// List implements Store.
func (s *FileStore) List(_ context.Context, table string) ([]*Overlay, error) {
	var out []*Overlay
	for column, ms := range s.settings.MapSchemas(table) {
		out = append(out, fromMapSchema(table, column, ms))
	}
	sortByColumn(out)
	return out, nil
}

func toMapSchema(o *Overlay) *config.MapSchema {
	ms := &config.MapSchema{Strict: o.Strict, Fields: make([]config.MapField, len(o.Fields))}
	for i, f := range o.Fields {
		ms.Fields[i] = config.MapField{Key: f.Key, Type: f.Type, Required: f.Required}
	}
	return ms
}

func fromMapSchema(table, column string, ms *config.MapSchema) *Overlay {
	if ms == nil {
		return nil
	}
	o := &Overlay{Table: table, Column: column, Strict: ms.Strict, Fields: make([]Field, len(ms.Fields))}
	for i, f := range ms.Fields {
		o.Fields[i] = Field{Key: f.Key, Type: f.Type, Required: f.Required}
	}
	return o
}

func sortByColumn(overlays []*Overlay) {
	sort.Slice(overlays, func(i, j int) bool { return overlays[i].Column < overlays[j].Column })
}
