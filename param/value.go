package param

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnsupportedType is returned when a parameter value falls outside the
// closed variant set (null, bool, number, string, list, mapping).
var ErrUnsupportedType = errors.New("param: unsupported parameter type")

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	List
	Map
)

// Value is a closed variant type for parameter values. Every variant can be
// rendered as a script source literal; anything outside the set is rejected
// at construction time.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// FromJSON converts a JSON-decoded value into a Value. Integral float64
// values are treated as integers, matching how JSON carries whole numbers.
// Types outside the closed set return ErrUnsupportedType.
func FromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{kind: Null}, nil
	case bool:
		return Value{kind: Bool, b: x}, nil
	case int:
		return Value{kind: Int, i: int64(x)}, nil
	case int64:
		return Value{kind: Int, i: x}, nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) && math.Abs(x) < 1e15 {
			return Value{kind: Int, i: int64(x)}, nil
		}
		return Value{kind: Float, f: x}, nil
	case string:
		return Value{kind: String, s: x}, nil
	case []any:
		list := make([]Value, 0, len(x))
		for _, item := range x {
			v, err := FromJSON(item)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return Value{kind: List, list: list}, nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for key, item := range x {
			v, err := FromJSON(item)
			if err != nil {
				return Value{}, err
			}
			m[key] = v
		}
		return Value{kind: Map, m: m}, nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, raw)
	}
}

// Render produces the source-code literal for the value. Numbers, booleans,
// strings, lists, and mappings all round-trip through this renderer.
func (v Value) Render() string {
	switch v.kind {
	case Null:
		return "None"
	case Bool:
		if v.b {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return renderFloat(v.f)
	case String:
		return renderString(v.s)
	case List:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.Render()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Map:
		keys := make([]string, 0, len(v.m))
		for key := range v.m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = renderString(key) + ": " + v.m[key].Render()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "None"
	}
}

// renderFloat keeps a trailing ".0" on integral floats so the literal stays
// a float in the script.
func renderFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// renderString quotes a string as a single-quoted script literal.
func renderString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
