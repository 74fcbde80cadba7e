package cassandra

import (
	"strings"

	"github.com/gocql/gocql"
)

// TypeText renders driver type information as CQL type text, the form
// cqltype.Parse reads.
func TypeText(info gocql.TypeInfo) string {
	if info == nil {
		return ""
	}
	switch t := info.(type) {
	case gocql.CollectionType:
		switch t.Type() {
		case gocql.TypeMap:
			return "map<" + TypeText(t.Key) + ", " + TypeText(t.Elem) + ">"
		case gocql.TypeSet:
			return "set<" + TypeText(t.Elem) + ">"
		default:
			return "list<" + TypeText(t.Elem) + ">"
		}
	case gocql.TupleTypeInfo:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = TypeText(e)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case gocql.UDTTypeInfo:
		return t.Name
	}

	if info.Type() == gocql.TypeCustom {
		return "'" + info.Custom() + "'"
	}
	return info.Type().String()
}
