package engine

import (
	"context"
	"reflect"

	"github.com/datastax/go-cassandra-native-protocol/datatype"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
	"github.com/redbco/redb-cql/pkg/overlay"
	"github.com/redbco/redb-cql/pkg/schema"
)

// Fields describes the row form of the active table. With a current row the
// values are filled in for editing.
func (e *Engine) Fields(ctx context.Context, current adapter.Row) ([]Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.selected(); err != nil {
		return nil, err
	}
	overlays, err := e.tableOverlays(ctx, e.view.base)
	if err != nil {
		return nil, err
	}
	return buildFields(e.view.table, overlays, current), nil
}

func (e *Engine) tableView(ctx context.Context, s *schema.TableSchema) (*TableView, error) {
	overlays, err := e.tableOverlays(ctx, s)
	if err != nil {
		return nil, err
	}
	tv := &TableView{
		Keyspace:      s.Keyspace,
		Table:         s.Table,
		PartitionKey:  s.PartitionKey,
		ClusteringKey: s.ClusteringKey,
		Fields:        buildFields(s, overlays, nil),
	}
	for _, c := range s.Columns {
		tv.Columns = append(tv.Columns, ColumnView{
			Name:            c.Name,
			Type:            cqltype.Format(c.Type),
			Kind:            c.Kind,
			KeyRole:         c.KeyRole(),
			ClusteringOrder: c.ClusteringOrder,
			Hidden:          c.Hidden,
			HasOverlay:      overlays[c.Name] != nil,
		})
		if c.Hidden {
			tv.Hidden = append(tv.Hidden, c.Name)
		}
	}
	if e.overlays != nil {
		if tv.Overlays, err = e.overlays.List(ctx, s.QualifiedName()); err != nil {
			return nil, err
		}
	}
	return tv, nil
}

func buildFields(s *schema.TableSchema, overlays map[string]*overlay.Overlay, current adapter.Row) []Field {
	fields := make([]Field, 0, len(s.Columns))
	for _, c := range s.Columns {
		f := Field{
			Name:         c.Name,
			Type:         cqltype.Format(c.Type),
			Tag:          cqltype.Tag(c.Type),
			Widget:       cqltype.Widget(c.Type),
			Kind:         c.Kind,
			KeyRole:      c.KeyRole(),
			AutoGenerate: c.IsPrimaryKey() && cqltype.IsUUID(c.Type),
			ReadOnly:     cqltype.IsCounter(c.Type),
			Hidden:       c.Hidden,
			Placeholder:  cqltype.Placeholder(c.Type),
		}
		f.Required = c.IsPrimaryKey() && !f.AutoGenerate
		f.Min, f.Max, f.HasRange = cqltype.IntRange(c.Type)

		var native interface{}
		if current != nil {
			native = current[c.Name]
			if native != nil {
				f.Value = c.Format(native)
			}
		}
		if o := overlays[c.Name]; o != nil {
			f.Strict = o.Strict
			f.SubFields = subFields(c.Type, o, native)
		}
		fields = append(fields, f)
	}
	return fields
}

// subFields lays out the declared keys of a map column, in declaration order,
// with values taken from the native map when present.
func subFields(dt datatype.DataType, o *overlay.Overlay, native interface{}) []SubField {
	m, ok := dt.(datatype.MapType)
	if !ok {
		return nil
	}
	values := make(map[string]string)
	if rv := reflect.ValueOf(native); native != nil && rv.Kind() == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			key := cqltype.FormatValue(m.GetKeyType(), iter.Key().Interface())
			values[key] = cqltype.FormatValue(m.GetValueType(), iter.Value().Interface())
		}
	}

	out := make([]SubField, 0, len(o.Fields))
	for _, fd := range o.Fields {
		sf := SubField{Key: fd.Key, Type: fd.Type, Required: fd.Required}
		if dt, err := cqltype.Parse(fd.Type); err == nil {
			sf.Tag = cqltype.Tag(dt)
			sf.Widget = cqltype.Widget(dt)
			sf.Placeholder = cqltype.Placeholder(dt)
		}
		sf.Value, sf.Present = values[fd.Key]
		out = append(out, sf)
	}
	return out
}
