package tglog

import (
	"strings"
	"time"
)

// TimestampLayout is the local-time, second-precision stamp at the head of every message.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is the per-call data a message is built from.
// It lives only for the duration of a single Log call.
type Record struct {
	Message string
	Level   Level
	Dialect Dialect
	ChatID  string
	URL     string
	File    string
	Time    time.Time
}

// Details returns the URL/File suffix: a newline followed by one line per
// present field, or "" when neither is set.
func (r Record) Details() string {
	lines := make([]string, 0, 2)
	if r.URL != "" {
		lines = append(lines, "URL: "+r.URL)
	}
	if r.File != "" {
		lines = append(lines, "File: "+r.File)
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n")
}

// FormatRecord renders r in its dialect.
// Unknown dialect values fall back to the plain-text layout.
func FormatRecord(r Record) string {
	ts := r.Time.Format(TimestampLayout)
	level := r.Level.String()
	details := r.Details()

	var b strings.Builder
	b.Grow(len(ts) + len(level) + len(r.Message) + len(details) + 16)

	switch r.Dialect {
	case HTML:
		b.WriteString("<b>[")
		b.WriteString(ts)
		b.WriteString("] ")
		b.WriteString(level)
		b.WriteString("</b>: ")
		b.WriteString(r.Message)
		b.WriteString(details)
	case Markdown:
		b.WriteString("*[")
		b.WriteString(ts)
		b.WriteString("] ")
		b.WriteString(level)
		b.WriteString("*: ")
		b.WriteString(r.Message)
		b.WriteString(details)
	case MarkdownV2:
		b.WriteString(`*\[`)
		b.WriteString(ts)
		b.WriteString(`\] `)
		b.WriteString(level)
		b.WriteString("*: ")
		b.WriteString(Escape(r.Message, MarkdownV2))
		b.WriteString(Escape(details, MarkdownV2))
	case PlainText:
		writePlain(&b, ts, level, r.Message, details)
	default:
		writePlain(&b, ts, level, r.Message, details)
	}
	return b.String()
}

func writePlain(b *strings.Builder, ts, level, msg, details string) {
	b.WriteString("[")
	b.WriteString(ts)
	b.WriteString("] ")
	b.WriteString(level)
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString(details)
}

// Format renders a message stamped with the current local time.
// Empty url/file are treated as absent.
func Format(message string, level Level, d Dialect, url, file string) string {
	return FormatRecord(Record{
		Message: message,
		Level:   level,
		Dialect: d,
		URL:     url,
		File:    file,
		Time:    time.Now(),
	})
}
