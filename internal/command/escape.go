package command

import (
	"fmt"
	"html"
	"reflect"
)

// Escape returns a copy of p with falsy entries removed and every string
// value entity-escaped, recursing through lists and nested maps. Booleans
// and numbers are kept as they are.
func Escape(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		if isFalsy(v) {
			continue
		}
		out[k] = escapeValue(v)
	}
	return out
}

func escapeValue(v any) any {
	switch t := v.(type) {
	case string:
		return html.EscapeString(t)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = html.EscapeString(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = escapeValue(e)
		}
		return out
	case Params:
		return Escape(t)
	case map[string]any:
		return Escape(t)
	case []Params:
		out := make([]Params, len(t))
		for i, e := range t {
			out[i] = Escape(e)
		}
		return out
	case []map[string]any:
		out := make([]Params, len(t))
		for i, e := range t {
			out[i] = Escape(e)
		}
		return out
	case fmt.Stringer:
		return html.EscapeString(t.String())
	default:
		return html.EscapeString(fmt.Sprint(t))
	}
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
