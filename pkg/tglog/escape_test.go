package tglog

import (
	"strings"
	"testing"
)

func TestEscapeMarkdownV2(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no reserved", in: "hello world", want: "hello world"},
		{name: "all reserved", in: "_*[]()~`>#+-=|{}.!", want: `\_\*\[\]\(\)\~\` + "`" + `\>\#\+\-\=\|\{\}\.\!`},
		{name: "sentence", in: "v2.0.1 (beta)!", want: `v2\.0\.1 \(beta\)\!`},
		{name: "repeated", in: "a..b", want: `a\.\.b`},
		{name: "backslash untouched", in: `a\b`, want: `a\b`},
		{name: "unicode", in: "🚀 done.", want: `🚀 done\.`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Escape(tt.in, MarkdownV2); got != tt.want {
				t.Fatalf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeEachReservedOnce(t *testing.T) {
	t.Parallel()
	in := "x_y*z[1](2)~`>#+-=|{}.!end"
	got := Escape(in, MarkdownV2)

	// Removing exactly one backslash before every reserved char must give back the input.
	var b strings.Builder
	rs := []rune(got)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '\\' && i+1 < len(rs) && strings.ContainsRune(markdownV2Reserved, rs[i+1]) {
			continue
		}
		if strings.ContainsRune(markdownV2Reserved, rs[i]) && (i == 0 || rs[i-1] != '\\') {
			t.Fatalf("reserved %q at %d not escaped in %q", rs[i], i, got)
		}
		b.WriteRune(rs[i])
	}
	if b.String() != in {
		t.Fatalf("unescaped = %q, want %q", b.String(), in)
	}
}

func TestEscapeIdentityForOtherDialects(t *testing.T) {
	t.Parallel()
	inputs := []string{"", "plain", "<b>x</b>", "*bold* _it_ [l](u)", "a.b-c!"}
	for _, d := range []Dialect{PlainText, HTML, Markdown} {
		for _, in := range inputs {
			if got := Escape(in, d); got != in {
				t.Fatalf("Escape(%q, %v) = %q, want identity", in, d, got)
			}
		}
	}
}
