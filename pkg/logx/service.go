package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string
	Console bool
	File    FileConfig
	Chat    ChatConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// ChatConfig controls the chat sink. MinLevel defaults to "error".
type ChatConfig struct {
	Enabled  bool
	MinLevel string
	// Timeout bounds a single delivery. Defaults to 10s.
	Timeout time.Duration
}

// Notifier delivers one rendered log event to the chat sink's destination.
type Notifier func(ctx context.Context, level Level, text string) error

const defaultLogPath = "./tgnotify.log"

// Service owns the root zerolog logger and swaps its sinks on Apply.
type Service struct {
	mu  sync.Mutex
	cfg Config

	root  atomic.Value // zerolog.Logger
	local atomic.Value // zerolog.Logger without the chat sink

	file     *os.File
	notifier Notifier
	minLevel zerolog.Level
	timeout  time.Duration
}

// New creates the logging service, applies cfg and returns the service and a root Logger.
func New(cfg Config) (*Service, Logger) {
	setGlobals()
	s := &Service{}
	zl := zerolog.New(newConsoleWriter(Stderr())).Level(ParseLevel(cfg.Level, zerolog.InfoLevel)).With().Timestamp().Logger()
	s.root.Store(zl)
	s.local.Store(zl)
	s.Apply(cfg)
	return s, Logger{svc: s}
}

func (s *Service) current(local bool) zerolog.Logger {
	v := s.root.Load()
	if local {
		v = s.local.Load()
	}
	zl, ok := v.(zerolog.Logger)
	if !ok {
		return zerolog.Nop()
	}
	return zl
}

func (s *Service) Logger() Logger { return Logger{svc: s} }

// LocalLogger follows Apply like Logger but never writes to the chat sink.
// Code on the chat delivery path must log through it.
func (s *Service) LocalLogger() Logger { return Logger{svc: s, local: true} }

// SetNotifier installs the chat sink's delivery function.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

func (s *Service) Close() error {
	s.mu.Lock()
	f := s.file
	s.file = nil
	s.mu.Unlock()
	if f != nil {
		return f.Close()
	}
	return nil
}

// Apply swaps outputs and levels at runtime. It is safe to call concurrently.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	s.minLevel = ParseLevel(cfg.Chat.MinLevel, zerolog.ErrorLevel)
	s.timeout = cfg.Chat.Timeout
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}

	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	writers := make([]io.Writer, 0, 3)
	if cfg.Console {
		writers = append(writers, newConsoleWriter(Stderr()))
	}
	if cfg.File.Enabled {
		path := strings.TrimSpace(cfg.File.Path)
		if path == "" {
			path = defaultLogPath
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(Stderr(), "logx: failed opening log file %q: %v\n", path, err)
		} else {
			s.file = f
			writers = append(writers, zerolog.SyncWriter(f))
		}
	}
	if len(writers) == 0 && !cfg.Chat.Enabled {
		writers = append(writers, newConsoleWriter(Stderr()))
	}
	level := ParseLevel(cfg.Level, zerolog.InfoLevel)
	build := func(ws []io.Writer) zerolog.Logger {
		if len(ws) == 0 {
			return zerolog.Nop()
		}
		return zerolog.New(zerolog.MultiLevelWriter(ws...)).Level(level).With().Timestamp().Logger()
	}

	s.local.Store(build(writers))
	if cfg.Chat.Enabled {
		writers = append(writers, &chatWriter{svc: s})
	}
	s.root.Store(build(writers))
}

// ---- chat sink ----

type chatWriter struct{ svc *Service }

func (w *chatWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.InfoLevel, p)
}

// WriteLevel forwards the event synchronously. Delivery errors are swallowed:
// a failing chat must never break local logging. The notifier must not log
// through the chat sink; see LocalLogger.
func (w *chatWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	s := w.svc
	s.mu.Lock()
	n := s.notifier
	minLevel := s.minLevel
	timeout := s.timeout
	s.mu.Unlock()

	if n == nil || level < minLevel {
		return len(p), nil
	}

	text := FormatEvent(p)
	if text == "" {
		return len(p), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = n(ctx, level, text)
	return len(p), nil
}

// FormatEvent renders a zerolog JSON line as "message" followed by one
// "- key=value" line per extra field (sorted by key). Non-JSON input is
// returned trimmed.
func FormatEvent(p []byte) string {
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return truncate(strings.TrimSpace(string(p)), 3500)
	}

	msg, _ := m[zerolog.MessageFieldName].(string)
	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(m[k]), 600))
	}
	return truncate(b.String(), 3500)
}

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	if maxN < 10 {
		return s[:maxN]
	}
	return s[:maxN-3] + "..."
}
