// Package logx configures tgnotify's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - An optional chat sink that forwards events at or above a minimum level
//     through a Notifier, synchronously and without buffering
package logx
