package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/adapter"
	"github.com/redbco/redb-cql/pkg/schema"
)

func devicesSchema(t *testing.T) *schema.TableSchema {
	t.Helper()
	s, err := schema.BuildSchema(&adapter.TableMetadata{
		Keyspace: "iot",
		Table:    "devices",
		Columns: []adapter.ColumnMetadata{
			{Name: "id", Type: "uuid", Kind: adapter.KindPartitionKey},
			{Name: "attrs", Type: "map<text, text>", Kind: adapter.KindRegular},
			{Name: "slots", Type: "frozen<map<int, text>>", Kind: adapter.KindRegular},
			{Name: "name", Type: "text", Kind: adapter.KindRegular},
		},
	})
	require.NoError(t, err)
	return s
}

func sensorOverlay(strict bool) *Overlay {
	return &Overlay{
		Table:  "iot.devices",
		Column: "attrs",
		Strict: strict,
		Fields: []Field{
			{Key: "unit", Type: "text", Required: true},
			{Key: "scale", Type: "int"},
			{Key: "calibrated", Type: "timestamp"},
		},
	}
}

func columns(errs []*adapter.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Column
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		strict    bool
		candidate map[string]string
		want      []string
	}{
		{"all keys valid", false, map[string]string{"unit": "C", "scale": "10", "calibrated": "2024-01-01T00:00:00Z"}, nil},
		{"optional keys absent", false, map[string]string{"unit": "C"}, nil},
		{"required key absent", false, map[string]string{"scale": "1"}, []string{"attrs[unit]"}},
		{"required key empty", false, map[string]string{"unit": ""}, []string{"attrs[unit]"}},
		{"typed value rejected", false, map[string]string{"unit": "C", "scale": "ten", "calibrated": "yesterday"}, []string{"attrs[calibrated]", "attrs[scale]"}},
		{"extra key tolerated", false, map[string]string{"unit": "C", "color": "red"}, nil},
		{"extra keys rejected when strict", true, map[string]string{"unit": "C", "zeta": "1", "color": "red"}, []string{"attrs[color]", "attrs[zeta]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(sensorOverlay(tt.strict), tt.candidate)
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, columns(errs))
			for _, e := range errs {
				assert.ErrorIs(t, e, adapter.ErrValidation)
			}
		})
	}

	assert.Nil(t, Validate(nil, map[string]string{"x": "y"}))
}

func TestValidateStrictness(t *testing.T) {
	o := &Overlay{Column: "m", Fields: []Field{{Key: "a", Type: "int"}, {Key: "b", Type: "text"}}}
	candidate := map[string]string{"a": "5", "b": "x", "c": "extra"}

	assert.Empty(t, Validate(o, candidate))

	o.Strict = true
	errs := Validate(o, candidate)
	require.Len(t, errs, 1)
	assert.Equal(t, "m[c]", errs[0].Column)
}

func TestValidateInput(t *testing.T) {
	s := devicesSchema(t)

	errs := ValidateInput(sensorOverlay(true), s.Column("attrs"), `{"unit": "C", "scale": "x"}`)
	assert.Equal(t, []string{"attrs[scale]"}, columns(errs))

	errs = ValidateInput(sensorOverlay(false), s.Column("attrs"), "scale=3\ncalibrated=2024-05-01")
	assert.Equal(t, []string{"attrs[unit]"}, columns(errs))

	// malformed map text is reported by the column type check instead
	assert.Empty(t, ValidateInput(sensorOverlay(true), s.Column("attrs"), "{not json"))
	assert.Empty(t, ValidateInput(sensorOverlay(true), s.Column("attrs"), ""))

	// int keys compare by value
	slots := &Overlay{Column: "slots", Strict: true, Fields: []Field{{Key: "1", Type: "boolean", Required: true}}}
	assert.Empty(t, ValidateInput(slots, s.Column("slots"), "01=true"))
	assert.Equal(t, []string{"slots[1]"}, columns(ValidateInput(slots, s.Column("slots"), "1=maybe")))
}

func TestCheckDefinition(t *testing.T) {
	s := devicesSchema(t)

	o := &Overlay{Column: "slots", Fields: []Field{{Key: "07", Type: "frozen<list<varchar>>"}, {Key: "2", Type: "TEXT"}}}
	require.NoError(t, checkDefinition(s, o))
	assert.Equal(t, "iot.devices", o.Table)
	assert.Equal(t, []string{"7", "2"}, o.Keys())
	assert.Equal(t, "list<text>", o.Fields[0].Type)
	assert.Equal(t, "text", o.Fields[1].Type)

	tests := []struct {
		name    string
		overlay *Overlay
		column  string
	}{
		{"unknown column", &Overlay{Column: "nope", Fields: []Field{{Key: "a", Type: "text"}}}, "nope"},
		{"not a map", &Overlay{Column: "name", Fields: []Field{{Key: "a", Type: "text"}}}, "name"},
		{"no fields", &Overlay{Column: "attrs"}, "attrs"},
		{"empty key", &Overlay{Column: "attrs", Fields: []Field{{Key: " ", Type: "text"}}}, "attrs"},
		{"duplicate key", &Overlay{Column: "slots", Fields: []Field{{Key: "1", Type: "text"}, {Key: "001", Type: "text"}}}, "slots[1]"},
		{"bad key", &Overlay{Column: "slots", Fields: []Field{{Key: "one", Type: "text"}}}, "slots[one]"},
		{"bad type", &Overlay{Column: "attrs", Fields: []Field{{Key: "a", Type: "map<text>"}}}, "attrs[a]"},
		{"counter type", &Overlay{Column: "attrs", Fields: []Field{{Key: "a", Type: "counter"}}}, "attrs[a]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkDefinition(s, tt.overlay)
			require.Error(t, err)
			assert.True(t, adapter.IsValidationError(err))
			assert.Contains(t, adapter.ValidationDetails(err), tt.column)
		})
	}
}
