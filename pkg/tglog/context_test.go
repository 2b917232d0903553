package tglog

import (
	"strings"
	"testing"
)

func TestSerializeContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil", ctx: nil, want: ""},
		{name: "empty", ctx: NewContext(), want: ""},
		{name: "scalars in order", ctx: NewContext("a", 1, "b", "x"), want: "a: 1\nb: x"},
		{name: "insertion order kept", ctx: NewContext("z", true, "a", 2.5, "m", uint8(7)), want: "z: true\na: 2.5\nm: 7"},
		{name: "structured as json", ctx: NewContext("data", map[string]string{"key": "value"}), want: `data: {"key":"value"}`},
		{name: "slice", ctx: NewContext("ids", []int{1, 2}), want: "ids: [1,2]"},
		{name: "nil value", ctx: NewContext("missing", nil), want: "missing: null"},
		{name: "dangling key", ctx: NewContext("k"), want: "k: null"},
		{name: "nested ordered", ctx: NewContext("inner", NewContext("b", 1, "a", 2)), want: `inner: {"b":1,"a":2}`},
		{name: "non-string key", ctx: NewContext(42, "x"), want: "42: x"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SerializeContext(tt.ctx)
			if got != tt.want {
				t.Fatalf("SerializeContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeContextUnmarshalable(t *testing.T) {
	t.Parallel()
	got := SerializeContext(NewContext("fn", func() {}))
	if !strings.HasPrefix(got, "fn: 0x") {
		t.Fatalf("SerializeContext() = %q, want fmt.Sprint fallback", got)
	}
}
