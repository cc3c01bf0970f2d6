package tree

import (
	"fmt"
	"strings"
)

// FormatKeys renders a key list as ['a', 'b']. Diagnostics established this
// shape as part of the observable message contract, so it is kept verbatim.
func FormatKeys(keys []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s'", k)
	}
	b.WriteByte(']')
	return b.String()
}

// FormatValue renders a tree node for diagnostics, in the same established
// shape: strings quoted, mappings as {'k': v}, sequences as [a, b],
// null as None.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return "'" + val + "'"
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(FormatValue(e))
		}
		b.WriteByte(']')
		return b.String()
	case *Map:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range val.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			e, _ := val.Get(k)
			fmt.Fprintf(&b, "'%s': %s", k, FormatValue(e))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprint(v)
	}
}

func kindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64:
		return "integer"
	case float64, float32:
		return "float"
	case []any:
		return "list"
	case *Map:
		return "dict"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// KindName returns the data-tree kind of a value: string, integer, float,
// boolean, list, dict or null.
func KindName(v any) string { return kindName(v) }
