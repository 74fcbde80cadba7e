package cqltype

import (
	"github.com/datastax/go-cassandra-native-protocol/datatype"
	"github.com/datastax/go-cassandra-native-protocol/primitive"
)

// Type tags used by field descriptors.
const (
	TagBoolean   = "boolean"
	TagInteger   = "integer"
	TagDecimal   = "decimal"
	TagFloat     = "float"
	TagText      = "text"
	TagUUID      = "uuid"
	TagTimestamp = "timestamp"
	TagDate      = "date"
	TagTime      = "time"
	TagDuration  = "duration"
	TagBlob      = "blob"
	TagInet      = "inet"
	TagList      = "list"
	TagSet       = "set"
	TagMap       = "map"
	TagTuple     = "tuple"
	TagCustom    = "custom"
)

// Widget hints for the presentation layer.
const (
	WidgetCheckbox = "checkbox"
	WidgetNumber   = "number"
	WidgetText     = "text"
	WidgetTextArea = "textarea"
	WidgetDateTime = "datetime"
	WidgetDate     = "date"
	WidgetTime     = "time"
)

// Tag groups a type into the family a form needs to know about.
func Tag(dt datatype.DataType) string {
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeBoolean:
		return TagBoolean
	case primitive.DataTypeCodeTinyint, primitive.DataTypeCodeSmallint, primitive.DataTypeCodeInt,
		primitive.DataTypeCodeBigint, primitive.DataTypeCodeCounter, primitive.DataTypeCodeVarint:
		return TagInteger
	case primitive.DataTypeCodeDecimal:
		return TagDecimal
	case primitive.DataTypeCodeFloat, primitive.DataTypeCodeDouble:
		return TagFloat
	case primitive.DataTypeCodeAscii, primitive.DataTypeCodeVarchar:
		return TagText
	case primitive.DataTypeCodeUuid, primitive.DataTypeCodeTimeuuid:
		return TagUUID
	case primitive.DataTypeCodeTimestamp:
		return TagTimestamp
	case primitive.DataTypeCodeDate:
		return TagDate
	case primitive.DataTypeCodeTime:
		return TagTime
	case primitive.DataTypeCodeDuration:
		return TagDuration
	case primitive.DataTypeCodeBlob:
		return TagBlob
	case primitive.DataTypeCodeInet:
		return TagInet
	case primitive.DataTypeCodeList:
		return TagList
	case primitive.DataTypeCodeSet:
		return TagSet
	case primitive.DataTypeCodeMap:
		return TagMap
	case primitive.DataTypeCodeTuple:
		return TagTuple
	}
	return TagCustom
}

// Widget suggests an input control for the type.
func Widget(dt datatype.DataType) string {
	switch Tag(dt) {
	case TagBoolean:
		return WidgetCheckbox
	case TagInteger, TagDecimal, TagFloat:
		return WidgetNumber
	case TagTimestamp:
		return WidgetDateTime
	case TagDate:
		return WidgetDate
	case TagTime:
		return WidgetTime
	case TagList, TagSet, TagMap, TagTuple, TagCustom, TagBlob:
		return WidgetTextArea
	}
	return WidgetText
}

// IntRange returns the inclusive bounds of fixed-width integer types.
func IntRange(dt datatype.DataType) (min, max int64, ok bool) {
	var bits int
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeTinyint:
		bits = 8
	case primitive.DataTypeCodeSmallint:
		bits = 16
	case primitive.DataTypeCodeInt:
		bits = 32
	case primitive.DataTypeCodeBigint, primitive.DataTypeCodeCounter:
		bits = 64
	default:
		return 0, 0, false
	}
	min, max = intBounds(bits)
	return min, max, true
}

// Placeholder is an example of accepted input for the type.
func Placeholder(dt datatype.DataType) string {
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeBoolean:
		return "true"
	case primitive.DataTypeCodeTinyint, primitive.DataTypeCodeSmallint, primitive.DataTypeCodeInt,
		primitive.DataTypeCodeBigint, primitive.DataTypeCodeCounter, primitive.DataTypeCodeVarint:
		return "42"
	case primitive.DataTypeCodeDecimal, primitive.DataTypeCodeFloat, primitive.DataTypeCodeDouble:
		return "3.14"
	case primitive.DataTypeCodeUuid:
		return "123e4567-e89b-12d3-a456-426614174000"
	case primitive.DataTypeCodeTimeuuid:
		return "50554d6e-29bb-11e5-b345-feff819cdc9f"
	case primitive.DataTypeCodeTimestamp:
		return "2024-01-31T12:00:00Z"
	case primitive.DataTypeCodeDate:
		return "2024-01-31"
	case primitive.DataTypeCodeTime:
		return "12:00:00"
	case primitive.DataTypeCodeDuration:
		return "1d12h"
	case primitive.DataTypeCodeBlob:
		return "0xcafe"
	case primitive.DataTypeCodeInet:
		return "192.168.0.1"
	case primitive.DataTypeCodeList, primitive.DataTypeCodeSet, primitive.DataTypeCodeTuple:
		return `["a","b"]`
	case primitive.DataTypeCodeMap:
		return `{"key":"value"}`
	}
	return ""
}
