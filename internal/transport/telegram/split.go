package telegram

import (
	"strings"

	"tgnotify/pkg/tglog"
)

// textLimit stays under Telegram's 4096 character cap.
const textLimit = 4000

// splitText splits s into chunks of at most limit runes.
// It prefers newline boundaries and, for HTML, avoids cutting inside a tag.
// For MarkdownV2 a cut never separates an escape backslash from its character.
func splitText(s string, limit int, d tglog.Dialect) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))

		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		if d == tglog.HTML && end < len(rs) {
			lastOpen, lastClose := -1, -1
			for i := start; i < end; i++ {
				switch rs[i] {
				case '<':
					lastOpen = i
				case '>':
					lastClose = i
				}
			}
			if lastOpen > lastClose && lastOpen > start+1 {
				end = lastOpen
			}
		}

		if d == tglog.MarkdownV2 && end < len(rs) && end-1 > start && rs[end-1] == '\\' {
			end--
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
