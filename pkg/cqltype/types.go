// Package cqltype maps CQL type text to a closed type variant and converts
// values between user-entered text and native driver values.
//
// The variant is datatype.DataType from the native protocol package, switched on
// its primitive.DataTypeCode. User-defined types and anything the parser does not
// recognise are carried as custom types holding the declared name.
package cqltype

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/datastax/go-cassandra-native-protocol/datatype"
	"github.com/datastax/go-cassandra-native-protocol/primitive"
)

var primitiveTypes = map[string]datatype.DataType{
	"ascii":     datatype.Ascii,
	"bigint":    datatype.Bigint,
	"blob":      datatype.Blob,
	"boolean":   datatype.Boolean,
	"counter":   datatype.Counter,
	"date":      datatype.Date,
	"decimal":   datatype.Decimal,
	"double":    datatype.Double,
	"duration":  datatype.Duration,
	"float":     datatype.Float,
	"inet":      datatype.Inet,
	"int":       datatype.Int,
	"smallint":  datatype.Smallint,
	"text":      datatype.Varchar,
	"time":      datatype.Time,
	"timestamp": datatype.Timestamp,
	"timeuuid":  datatype.Timeuuid,
	"tinyint":   datatype.Tinyint,
	"uuid":      datatype.Uuid,
	"varchar":   datatype.Varchar,
	"varint":    datatype.Varint,
}

var primitiveNames = map[primitive.DataTypeCode]string{
	primitive.DataTypeCodeAscii:     "ascii",
	primitive.DataTypeCodeBigint:    "bigint",
	primitive.DataTypeCodeBlob:      "blob",
	primitive.DataTypeCodeBoolean:   "boolean",
	primitive.DataTypeCodeCounter:   "counter",
	primitive.DataTypeCodeDate:      "date",
	primitive.DataTypeCodeDecimal:   "decimal",
	primitive.DataTypeCodeDouble:    "double",
	primitive.DataTypeCodeDuration:  "duration",
	primitive.DataTypeCodeFloat:     "float",
	primitive.DataTypeCodeInet:      "inet",
	primitive.DataTypeCodeInt:       "int",
	primitive.DataTypeCodeSmallint:  "smallint",
	primitive.DataTypeCodeVarchar:   "text",
	primitive.DataTypeCodeTime:      "time",
	primitive.DataTypeCodeTimestamp: "timestamp",
	primitive.DataTypeCodeTimeuuid:  "timeuuid",
	primitive.DataTypeCodeTinyint:   "tinyint",
	primitive.DataTypeCodeUuid:      "uuid",
	primitive.DataTypeCodeVarint:    "varint",
}

// Parse converts CQL type text such as "map<text, frozen<list<int>>>" to a DataType.
// frozen<> wrappers are dropped. Unknown names become custom types.
func Parse(text string) (datatype.DataType, error) {
	p := &typeParser{src: text}
	if err := p.tokenize(); err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", text, err)
	}
	if len(p.tokens) == 0 {
		return nil, fmt.Errorf("invalid type %q: empty", text)
	}
	dt, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", text, err)
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("invalid type %q: unexpected %q", text, p.tokens[p.pos].text)
	}
	return dt, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(text string) datatype.DataType {
	dt, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return dt
}

// Format renders a DataType back to CQL type text.
func Format(dt datatype.DataType) string {
	if dt == nil {
		return ""
	}
	code := dt.GetDataTypeCode()
	if name, ok := primitiveNames[code]; ok {
		return name
	}
	switch code {
	case primitive.DataTypeCodeList:
		return "list<" + Format(dt.(datatype.ListType).GetElementType()) + ">"
	case primitive.DataTypeCodeSet:
		return "set<" + Format(dt.(datatype.SetType).GetElementType()) + ">"
	case primitive.DataTypeCodeMap:
		mt := dt.(datatype.MapType)
		return "map<" + Format(mt.GetKeyType()) + ", " + Format(mt.GetValueType()) + ">"
	case primitive.DataTypeCodeTuple:
		fields := dt.(datatype.TupleType).GetFieldTypes()
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = Format(f)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case primitive.DataTypeCodeUdt:
		return dt.(datatype.UserDefinedType).GetName()
	case primitive.DataTypeCodeCustom:
		return dt.(datatype.CustomType).GetClassName()
	}
	return fmt.Sprintf("unknown(%d)", code)
}

// IsCollection reports list, set and map types.
func IsCollection(dt datatype.DataType) bool {
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeList, primitive.DataTypeCodeSet, primitive.DataTypeCodeMap:
		return true
	}
	return false
}

// IsMap reports map types.
func IsMap(dt datatype.DataType) bool {
	return dt != nil && dt.GetDataTypeCode() == primitive.DataTypeCodeMap
}

// IsCounter reports counter columns, which cannot be inserted.
func IsCounter(dt datatype.DataType) bool {
	return dt != nil && dt.GetDataTypeCode() == primitive.DataTypeCodeCounter
}

// IsUUID reports uuid and timeuuid, whose key values can be generated.
func IsUUID(dt datatype.DataType) bool {
	if dt == nil {
		return false
	}
	code := dt.GetDataTypeCode()
	return code == primitive.DataTypeCodeUuid || code == primitive.DataTypeCodeTimeuuid
}

func isNumeric(code primitive.DataTypeCode) bool {
	switch code {
	case primitive.DataTypeCodeTinyint, primitive.DataTypeCodeSmallint, primitive.DataTypeCodeInt,
		primitive.DataTypeCodeBigint, primitive.DataTypeCodeCounter, primitive.DataTypeCodeVarint,
		primitive.DataTypeCodeDecimal, primitive.DataTypeCodeFloat, primitive.DataTypeCodeDouble:
		return true
	}
	return false
}

type typeToken struct {
	text   string
	quoted bool
	start  int
	end    int
}

type typeParser struct {
	src    string
	tokens []typeToken
	pos    int
}

func (p *typeParser) tokenize() error {
	s := p.src
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '<' || c == '>' || c == ',':
			p.tokens = append(p.tokens, typeToken{text: string(c), start: i, end: i + 1})
			i++
		case c == '"' || c == '\'':
			quote := s[i]
			var b strings.Builder
			j := i + 1
			closed := false
			for j < len(s) {
				if s[j] == quote {
					if j+1 < len(s) && s[j+1] == quote {
						b.WriteByte(quote)
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				b.WriteByte(s[j])
				j++
			}
			if !closed {
				return fmt.Errorf("unterminated quote at offset %d", i)
			}
			p.tokens = append(p.tokens, typeToken{text: b.String(), quoted: true, start: i, end: j})
			i = j
		case isNameChar(c):
			j := i
			for j < len(s) && isNameChar(rune(s[j])) {
				j++
			}
			p.tokens = append(p.tokens, typeToken{text: s[i:j], start: i, end: j})
			i = j
		default:
			return fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}
	return nil
}

func isNameChar(c rune) bool {
	return c == '_' || c == '.' || c == '$' || c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c))
}

func (p *typeParser) peek(text string) bool {
	return p.pos < len(p.tokens) && !p.tokens[p.pos].quoted && p.tokens[p.pos].text == text
}

func (p *typeParser) expect(text string) error {
	if !p.peek(text) {
		if p.pos >= len(p.tokens) {
			return fmt.Errorf("expected %q at end of input", text)
		}
		return fmt.Errorf("expected %q, found %q", text, p.tokens[p.pos].text)
	}
	p.pos++
	return nil
}

func (p *typeParser) parseArgs() ([]datatype.DataType, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	var args []datatype.DataType
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek(",") {
			p.pos++
			continue
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// skipArgs consumes a balanced <...> group and returns its source span end.
func (p *typeParser) skipArgs() (int, error) {
	depth := 0
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		if tok.quoted {
			continue
		}
		switch tok.text {
		case "<":
			depth++
		case ">":
			depth--
			if depth == 0 {
				return tok.end, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced '<'")
}

func (p *typeParser) parseType() (datatype.DataType, error) {
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of input")
	}
	tok := p.tokens[p.pos]
	if !tok.quoted && (tok.text == "<" || tok.text == ">" || tok.text == ",") {
		return nil, fmt.Errorf("unexpected %q", tok.text)
	}
	p.pos++

	if tok.quoted {
		// 'org.apache...' class names and "MixedCase" user types
		return datatype.NewCustomType(tok.text), nil
	}

	name := strings.ToLower(tok.text)
	if !p.peek("<") {
		if dt, ok := primitiveTypes[name]; ok {
			return dt, nil
		}
		switch name {
		case "list", "set", "map", "tuple", "frozen":
			return nil, fmt.Errorf("%s requires type arguments", name)
		}
		return datatype.NewCustomType(tok.text), nil
	}

	switch name {
	case "frozen", "list", "set", "map", "tuple":
	default:
		// vector<float, 3> and other parameterised types are kept opaque
		end, err := p.skipArgs()
		if err != nil {
			return nil, err
		}
		return datatype.NewCustomType(p.src[tok.start:end]), nil
	}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	switch name {
	case "frozen":
		if len(args) != 1 {
			return nil, fmt.Errorf("frozen takes one argument, got %d", len(args))
		}
		return args[0], nil
	case "list":
		if len(args) != 1 {
			return nil, fmt.Errorf("list takes one argument, got %d", len(args))
		}
		return datatype.NewListType(args[0]), nil
	case "set":
		if len(args) != 1 {
			return nil, fmt.Errorf("set takes one argument, got %d", len(args))
		}
		return datatype.NewSetType(args[0]), nil
	case "map":
		if len(args) != 2 {
			return nil, fmt.Errorf("map takes two arguments, got %d", len(args))
		}
		return datatype.NewMapType(args[0], args[1]), nil
	default:
		return datatype.NewTupleType(args...), nil
	}
}
