// Package overlay gives map-typed columns a fixed shape: a list of expected
// keys, each with its own value type. Overlays are local annotations stored
// outside the cluster and never change the table itself.
package overlay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datastax/go-cassandra-native-protocol/datatype"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/cqltype"
	"github.com/redbco/redb-cql/pkg/schema"
)

// Field is one declared key of a map column.
type Field struct {
	Key      string `json:"key" yaml:"key"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Overlay is the declared shape of one map column. Table is the qualified
// "keyspace.table" name. Overlays returned by a Manager are shared and must
// not be modified.
type Overlay struct {
	Table  string  `json:"table"`
	Column string  `json:"column"`
	Fields []Field `json:"fields"`
	Strict bool    `json:"strict,omitempty"`
}

// Field returns the declared field for key, or nil.
func (o *Overlay) Field(key string) *Field {
	for i := range o.Fields {
		if o.Fields[i].Key == key {
			return &o.Fields[i]
		}
	}
	return nil
}

// Keys returns the declared keys in declaration order.
func (o *Overlay) Keys() []string {
	keys := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Clone returns a deep copy.
func (o *Overlay) Clone() *Overlay {
	out := *o
	out.Fields = append([]Field(nil), o.Fields...)
	return &out
}

// Validate checks candidate map entries, keyed by canonical key text, against
// the overlay. Absent keys are errors only when required, values must parse
// with their declared type, and undeclared keys are rejected only in strict
// mode. Errors name the column as "column[key]" and come back sorted.
func Validate(o *Overlay, candidate map[string]string) []*adapter.ValidationError {
	if o == nil {
		return nil
	}
	var errs []*adapter.ValidationError
	for _, f := range o.Fields {
		raw, ok := candidate[f.Key]
		if !ok {
			if f.Required {
				errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key), "required key is missing"))
			}
			continue
		}
		dt, err := cqltype.Parse(f.Type)
		if err != nil {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key), fmt.Sprintf("declared type %q: %v", f.Type, err)))
			continue
		}
		if raw == "" && f.Required {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key), "required key has no value"))
			continue
		}
		if _, err := cqltype.ParseValue(dt, raw); err != nil {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key),
				fmt.Sprintf("expected %s: %v", cqltype.Format(dt), err)))
		}
	}

	if o.Strict {
		var extra []string
		for k := range candidate {
			if o.Field(k) == nil {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, k), "unexpected key"))
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Column < errs[j].Column })
	return errs
}

// ValidateInput splits raw map input for col and validates it. Input that is
// not well-formed map text is left to the column's own type check.
func ValidateInput(o *Overlay, col *schema.ColumnDef, raw string) []*adapter.ValidationError {
	if o == nil || raw == "" {
		return nil
	}
	entries, err := cqltype.MapEntries(raw)
	if err != nil {
		return nil
	}
	keyType := mapKeyType(col.Type)
	candidate := make(map[string]string, len(entries))
	for _, e := range entries {
		candidate[canonicalKey(keyType, e.Key)] = e.Value
	}
	return Validate(o, candidate)
}

// checkDefinition normalizes an overlay for column col of s in place.
func checkDefinition(s *schema.TableSchema, o *Overlay) error {
	col := s.Column(o.Column)
	if col == nil {
		return adapter.NewValidationError(o.Column, "unknown column")
	}
	if !cqltype.IsMap(col.Type) {
		return adapter.NewValidationError(o.Column, fmt.Sprintf("overlays apply to map columns, not %s", col.CQLType))
	}
	if len(o.Fields) == 0 {
		return adapter.NewValidationError(o.Column, "an overlay needs at least one key")
	}

	o.Table = s.QualifiedName()
	keyType := mapKeyType(col.Type)

	var errs adapter.ValidationErrors
	seen := make(map[string]bool, len(o.Fields))
	for i := range o.Fields {
		f := &o.Fields[i]
		if strings.TrimSpace(f.Key) == "" {
			errs = append(errs, adapter.NewValidationError(o.Column, fmt.Sprintf("field %d: key is empty", i+1)))
			continue
		}
		k, err := cqltype.ParseValue(keyType, f.Key)
		if err != nil {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key),
				fmt.Sprintf("key is not a valid %s: %v", cqltype.Format(keyType), err)))
			continue
		}
		f.Key = cqltype.FormatValue(keyType, k)
		if seen[f.Key] {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key), "duplicate key"))
			continue
		}
		seen[f.Key] = true

		dt, err := cqltype.Parse(f.Type)
		if err != nil {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key), fmt.Sprintf("type %q: %v", f.Type, err)))
			continue
		}
		if cqltype.IsCounter(dt) {
			errs = append(errs, adapter.NewValidationError(entryName(o.Column, f.Key), "counter is not a value type"))
			continue
		}
		f.Type = cqltype.Format(dt)
	}
	return errs.AsError()
}

func mapKeyType(dt datatype.DataType) datatype.DataType {
	if m, ok := dt.(datatype.MapType); ok {
		return m.GetKeyType()
	}
	return datatype.Varchar
}

// canonicalKey renders key the way FormatValue would, so "01" and "1" name the
// same int key. Unparseable keys are kept as typed.
func canonicalKey(keyType datatype.DataType, key string) string {
	v, err := cqltype.ParseValue(keyType, key)
	if err != nil || v == nil {
		return key
	}
	return cqltype.FormatValue(keyType, v)
}

func entryName(column, key string) string {
	return column + "[" + key + "]"
}
