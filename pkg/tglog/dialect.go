package tglog

import (
	"fmt"
	"strings"
)

// Dialect is the markup convention a message is rendered in.
type Dialect int

const (
	PlainText Dialect = iota
	HTML
	Markdown
	MarkdownV2
)

// Valid reports whether d is one of the four known dialects.
func (d Dialect) Valid() bool {
	switch d {
	case PlainText, HTML, Markdown, MarkdownV2:
		return true
	}
	return false
}

// ParseMode returns the Telegram parse_mode label for d.
// Plain text has no label; an empty parse_mode means plain text on the wire.
func (d Dialect) ParseMode() string {
	switch d {
	case HTML:
		return "HTML"
	case Markdown:
		return "Markdown"
	case MarkdownV2:
		return "MarkdownV2"
	default:
		return ""
	}
}

func (d Dialect) String() string {
	switch d {
	case PlainText:
		return "PlainText"
	case HTML, Markdown, MarkdownV2:
		return d.ParseMode()
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect parses a dialect name (case-insensitive).
// The empty string selects plain text.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain", "plaintext", "text":
		return PlainText, nil
	case "html":
		return HTML, nil
	case "markdown":
		return Markdown, nil
	case "markdownv2":
		return MarkdownV2, nil
	default:
		return PlainText, fmt.Errorf("%w: unknown dialect %q (use plain, HTML, Markdown or MarkdownV2)", ErrInvalidConfiguration, s)
	}
}

// Level is the severity label embedded in a formatted message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel parses INFO, WARNING (or WARN) and ERROR, case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}
