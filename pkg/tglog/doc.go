// Package tglog relays leveled log messages to a Telegram chat.
//
// A Client formats each message for one of four markup dialects
// (plain text, HTML, Markdown, MarkdownV2) and hands the result to a
// Transport, which performs a single delivery attempt:
//
//   - Delivery failures reported by the transport surface as a false return.
//   - Misconfiguration (an unknown dialect) is rejected before any state
//     change or network call with ErrInvalidConfiguration.
//   - Transport faults are returned untouched as errors.
//
// Caller location (file:line, request URL) is supplied by an injected
// CallSiteFunc; the default reports nothing.
package tglog
