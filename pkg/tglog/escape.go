package tglog

import "strings"

// markdownV2Reserved lists every character Telegram requires to be escaped in MarkdownV2 text.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!"

var markdownV2Replacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(markdownV2Reserved))
	for _, r := range markdownV2Reserved {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// Escape makes text safe for the given dialect.
//
// Only MarkdownV2 escapes anything: each reserved character gets a single
// backslash prefix in one pass. For the other dialects the caller owns markup
// validity and text is returned as-is.
func Escape(text string, d Dialect) string {
	if d != MarkdownV2 || text == "" {
		return text
	}
	return markdownV2Replacer.Replace(text)
}
