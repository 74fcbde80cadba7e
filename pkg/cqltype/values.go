package cqltype

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/datastax/go-cassandra-native-protocol/datatype"
	"github.com/datastax/go-cassandra-native-protocol/primitive"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// ParseValue converts user-entered text to the native value bound for dt.
// Empty text is null and yields (nil, nil).
func ParseValue(dt datatype.DataType, raw string) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	return parseText(dt, raw)
}

// parseText converts non-null text. Surrounding whitespace is only significant
// for text types.
func parseText(dt datatype.DataType, raw string) (interface{}, error) {
	if dt == nil {
		return nil, fmt.Errorf("unknown type")
	}
	code := dt.GetDataTypeCode()
	switch code {
	case primitive.DataTypeCodeVarchar:
		return raw, nil
	case primitive.DataTypeCodeAscii:
		for i := 0; i < len(raw); i++ {
			if raw[i] >= 0x80 {
				return nil, fmt.Errorf("ascii value contains non-ascii character at offset %d", i)
			}
		}
		return raw, nil
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("blank value for %s", Format(dt))
	}

	switch code {
	case primitive.DataTypeCodeBoolean:
		return parseBool(s)
	case primitive.DataTypeCodeTinyint:
		v, err := parseInt(s, 8)
		return int8(v), err
	case primitive.DataTypeCodeSmallint:
		v, err := parseInt(s, 16)
		return int16(v), err
	case primitive.DataTypeCodeInt:
		v, err := parseInt(s, 32)
		return int32(v), err
	case primitive.DataTypeCodeBigint, primitive.DataTypeCodeCounter:
		return parseInt(s, 64)
	case primitive.DataTypeCodeVarint:
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return v, nil
	case primitive.DataTypeCodeDecimal:
		if strings.ContainsAny(s, "eE,") {
			return nil, fmt.Errorf("%q is not a plain decimal number", s)
		}
		v, ok := new(inf.Dec).SetString(s)
		if !ok {
			return nil, fmt.Errorf("%q is not a decimal number", s)
		}
		return v, nil
	case primitive.DataTypeCodeFloat:
		v, err := parseFloat(s, 32)
		return float32(v), err
	case primitive.DataTypeCodeDouble:
		return parseFloat(s, 64)
	case primitive.DataTypeCodeUuid:
		return parseUUID(s, false)
	case primitive.DataTypeCodeTimeuuid:
		return parseUUID(s, true)
	case primitive.DataTypeCodeTimestamp:
		return parseTimestamp(s)
	case primitive.DataTypeCodeDate:
		return parseDate(s)
	case primitive.DataTypeCodeTime:
		return parseTimeOfDay(s)
	case primitive.DataTypeCodeDuration:
		return parseDuration(s)
	case primitive.DataTypeCodeBlob:
		return parseBlob(s)
	case primitive.DataTypeCodeInet:
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("%q is not an IP address", s)
		}
		return ip, nil
	case primitive.DataTypeCodeList:
		return parseList(dt.(datatype.ListType).GetElementType(), s)
	case primitive.DataTypeCodeSet:
		return parseList(dt.(datatype.SetType).GetElementType(), s)
	case primitive.DataTypeCodeMap:
		mt := dt.(datatype.MapType)
		return parseMap(mt.GetKeyType(), mt.GetValueType(), s)
	case primitive.DataTypeCodeTuple:
		return parseTuple(dt.(datatype.TupleType).GetFieldTypes(), s)
	default:
		// user-defined and custom types: structured JSON or opaque text
		if strings.HasPrefix(s, "{") {
			return parseObject(s)
		}
		return raw, nil
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean (true/false)", s)
}

func parseInt(s string, bits int) (int64, error) {
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			lo, hi := intBounds(bits)
			return 0, fmt.Errorf("%s is out of range [%d, %d]", s, lo, hi)
		}
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}

func intBounds(bits int) (int64, int64) {
	hi := int64(1)<<(bits-1) - 1
	if bits == 64 {
		hi = 1<<63 - 1
	}
	return -hi - 1, hi
}

func parseFloat(s string, bits int) (float64, error) {
	if strings.Contains(s, ",") {
		return 0, fmt.Errorf("%q is not a number, use '.' as decimal separator", s)
	}
	v, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func parseUUID(s string, timeBased bool) (gocql.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("%q is not a UUID", s)
	}
	if timeBased && u.Version() != 1 {
		return gocql.UUID{}, fmt.Errorf("%q is not a time-based (version 1) UUID", s)
	}
	return gocql.UUID(u), nil
}

func parseBlob(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("%q is not valid hex", s)
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("blob must be 0x-prefixed hex or base64")
}

// FormatValue renders a native value as text that ParseValue reads back to an
// equal value. It never fails; values it does not recognise go through fmt.
func FormatValue(dt datatype.DataType, v interface{}) string {
	if isNil(v) {
		return ""
	}
	if dt == nil {
		return formatScalar(v)
	}

	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeTimestamp:
		if t, ok := v.(time.Time); ok {
			return formatTimestamp(t)
		}
	case primitive.DataTypeCodeDate:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(dateLayout)
		}
	case primitive.DataTypeCodeTime:
		switch t := v.(type) {
		case time.Duration:
			return formatTimeOfDay(t)
		case int64:
			return formatTimeOfDay(time.Duration(t))
		}
	case primitive.DataTypeCodeDuration:
		if d, ok := v.(gocql.Duration); ok {
			return formatDuration(d)
		}
	case primitive.DataTypeCodeList:
		return formatList(dt.(datatype.ListType).GetElementType(), v)
	case primitive.DataTypeCodeSet:
		return formatList(dt.(datatype.SetType).GetElementType(), v)
	case primitive.DataTypeCodeMap:
		mt := dt.(datatype.MapType)
		return formatMap(mt.GetKeyType(), mt.GetValueType(), v)
	case primitive.DataTypeCodeTuple:
		return formatTuple(dt.(datatype.TupleType).GetFieldTypes(), v)
	case primitive.DataTypeCodeFloat:
		switch f := v.(type) {
		case float32:
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		case float64:
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
	}

	return formatScalar(v)
}

func formatScalar(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case *big.Int:
		return x.String()
	case big.Int:
		return x.String()
	case *inf.Dec:
		return x.String()
	case gocql.UUID:
		return x.String()
	case uuid.UUID:
		return x.String()
	case time.Time:
		return formatTimestamp(x)
	case time.Duration:
		return formatTimeOfDay(x)
	case gocql.Duration:
		return formatDuration(x)
	case net.IP:
		return x.String()
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case map[string]interface{}:
		return formatObject(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
