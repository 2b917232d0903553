package tglog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Context is an insertion-ordered key/value attachment for exception reports.
type Context = orderedmap.OrderedMap[string, any]

// NewContext builds a Context from alternating key/value arguments.
// Non-string keys are rendered with fmt.Sprint; a dangling key maps to nil.
func NewContext(kv ...any) *Context {
	m := orderedmap.New[string, any]()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		m.Set(key, v)
	}
	return m
}

// SerializeContext renders m as one "key: value" line per entry, in insertion order.
// Scalars use their natural text form; anything structured is rendered as compact JSON.
func SerializeContext(m *Context) string {
	if m == nil || m.Len() == 0 {
		return ""
	}
	lines := make([]string, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		lines = append(lines, p.Key+": "+contextValue(p.Value))
	}
	return strings.Join(lines, "\n")
}

func contextValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr:
		return fmt.Sprint(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
