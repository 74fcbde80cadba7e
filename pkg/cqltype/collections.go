package cqltype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/datastax/go-cassandra-native-protocol/datatype"
	"github.com/datastax/go-cassandra-native-protocol/primitive"
)

// Collections are written as JSON. Plain "a, b, c" lists and "k=v" maps are
// accepted on input for convenience, one item per line or comma separated.

func parseList(elem datatype.DataType, s string) ([]interface{}, error) {
	var items []string
	if strings.HasPrefix(s, "[") {
		raw, err := decodeJSONArray(s)
		if err != nil {
			return nil, err
		}
		items = make([]string, len(raw))
		for i, r := range raw {
			if r == nil {
				return nil, fmt.Errorf("element %d: collections cannot contain null", i)
			}
			items[i] = jsonText(r)
		}
	} else {
		items = splitItems(s)
	}

	out := make([]interface{}, 0, len(items))
	for i, item := range items {
		v, err := parseElement(elem, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseMap(keyType, valueType datatype.DataType, s string) (map[interface{}]interface{}, error) {
	if !hashableKey(keyType) {
		return nil, fmt.Errorf("map keys of type %s are not supported", Format(keyType))
	}

	entries, err := MapEntries(s)
	if err != nil {
		return nil, err
	}

	out := make(map[interface{}]interface{}, len(entries))
	for _, e := range entries {
		k, err := parseElement(keyType, e.Key)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate key %q", e.Key)
		}
		v, err := parseElement(valueType, e.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		out[k] = v
	}
	return out, nil
}

// MapEntry is one key/value pair of map input, both still as text.
type MapEntry struct {
	Key   string
	Value string
}

// MapEntries splits map input (a JSON object or key=value items) into raw
// entries in input order without interpreting their types.
func MapEntries(s string) ([]MapEntry, error) {
	s = strings.TrimSpace(s)
	var entries []MapEntry
	if strings.HasPrefix(s, "{") {
		obj, order, err := decodeJSONObject(s)
		if err != nil {
			return nil, err
		}
		for _, k := range order {
			if obj[k] == nil {
				return nil, fmt.Errorf("key %q: map values cannot be null", k)
			}
			entries = append(entries, MapEntry{Key: k, Value: jsonText(obj[k])})
		}
		return entries, nil
	}
	for _, item := range splitItems(s) {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not a key=value pair", item)
		}
		entries = append(entries, MapEntry{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}
	return entries, nil
}

func parseTuple(fields []datatype.DataType, s string) ([]interface{}, error) {
	if !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("tuple must be a JSON array")
	}
	raw, err := decodeJSONArray(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(fields) {
		return nil, fmt.Errorf("tuple expects %d fields, got %d", len(fields), len(raw))
	}
	out := make([]interface{}, len(fields))
	for i, r := range raw {
		if r == nil {
			continue
		}
		v, err := parseElement(fields[i], jsonText(r))
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseObject decodes a JSON object for user-defined types. Integral numbers
// become int64, others float64.
func parseObject(s string) (map[string]interface{}, error) {
	obj, _, err := decodeJSONObject(s)
	if err != nil {
		return nil, err
	}
	for k, v := range obj {
		obj[k] = plainJSON(v)
	}
	return obj, nil
}

func plainJSON(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case []interface{}:
		for i := range x {
			x[i] = plainJSON(x[i])
		}
	case map[string]interface{}:
		for k := range x {
			x[k] = plainJSON(x[k])
		}
	}
	return v
}

// parseElement parses a collection element. Unlike top-level input, empty text
// is a valid element for text types.
func parseElement(dt datatype.DataType, s string) (interface{}, error) {
	code := dt.GetDataTypeCode()
	if s == "" && code != primitive.DataTypeCodeVarchar && code != primitive.DataTypeCodeAscii {
		return nil, fmt.Errorf("empty element")
	}
	return parseText(dt, s)
}

func hashableKey(dt datatype.DataType) bool {
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeBlob, primitive.DataTypeCodeInet,
		primitive.DataTypeCodeList, primitive.DataTypeCodeSet, primitive.DataTypeCodeMap,
		primitive.DataTypeCodeTuple, primitive.DataTypeCodeUdt, primitive.DataTypeCodeCustom:
		return false
	}
	return true
}

func splitItems(s string) []string {
	sep := ","
	if strings.Contains(s, "\n") {
		sep = "\n"
	}
	var items []string
	for _, item := range strings.Split(s, sep) {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func decodeJSONArray(s string) ([]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out []interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %v", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON array: trailing data")
	}
	return out, nil
}

// decodeJSONObject returns the object and its keys in document order.
func decodeJSONObject(s string) (map[string]interface{}, []string, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, nil, fmt.Errorf("invalid JSON object")
	}
	obj := make(map[string]interface{})
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON object: %v", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid JSON object key")
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON object: %v", err)
		}
		if _, dup := obj[key]; dup {
			return nil, nil, fmt.Errorf("duplicate key %q", key)
		}
		obj[key] = v
		order = append(order, key)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON object: %v", err)
	}
	if dec.More() {
		return nil, nil, fmt.Errorf("invalid JSON object: trailing data")
	}
	return obj, order, nil
}

// jsonText turns a decoded JSON value back into element text.
func jsonText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func formatList(elem datatype.DataType, v interface{}) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return formatScalar(v)
	}
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = jsonElement(elem, rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatMap(keyType, valueType datatype.DataType, v interface{}) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return formatScalar(v)
	}
	type entry struct{ key, value string }
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{
			key:   FormatValue(keyType, iter.Key().Interface()),
			value: jsonElement(valueType, iter.Value().Interface()),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	var b bytes.Buffer
	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsonString(e.key))
		b.WriteByte(':')
		b.WriteString(e.value)
	}
	b.WriteByte('}')
	return b.String()
}

func formatTuple(fields []datatype.DataType, v interface{}) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return formatScalar(v)
	}
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		var ft datatype.DataType
		if i < len(fields) {
			ft = fields[i]
		}
		parts[i] = jsonElement(ft, rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatObject(m map[string]interface{}) string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprint(m)
	}
	return string(b)
}

// jsonElement renders one collection element as a JSON token. Numbers and
// booleans stay bare, nested collections are embedded, everything else is a
// JSON string.
func jsonElement(dt datatype.DataType, v interface{}) string {
	if isNil(v) {
		return "null"
	}
	text := FormatValue(dt, v)
	if dt == nil {
		return jsonString(text)
	}
	code := dt.GetDataTypeCode()
	switch {
	case code == primitive.DataTypeCodeBoolean:
		return text
	case isNumeric(code):
		if json.Valid([]byte(text)) {
			return text
		}
		// NaN and Inf
		return jsonString(text)
	case code == primitive.DataTypeCodeList, code == primitive.DataTypeCodeSet,
		code == primitive.DataTypeCodeMap, code == primitive.DataTypeCodeTuple:
		return text
	}
	if _, ok := v.(map[string]interface{}); ok {
		return text
	}
	return jsonString(text)
}

func jsonString(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
