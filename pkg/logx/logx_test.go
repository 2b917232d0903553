package logx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestFormatEvent(t *testing.T) {
	t.Parallel()
	line := []byte(`{"level":"error","time":"2025-01-02T03:04:05Z","message":"job failed","job":"backup","err":"disk full"}`)
	want := "job failed\n- err=disk full\n- job=backup"
	if got := FormatEvent(line); got != want {
		t.Fatalf("FormatEvent() = %q, want %q", got, want)
	}
	if got := FormatEvent([]byte("  not json \n")); got != "not json" {
		t.Fatalf("FormatEvent(non-json) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := truncate("abcdefghijklmnop", 12); got != "abcdefghi..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 2); got != "ab" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("truncate unlimited = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in, LevelInfo); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZeroAndNopLoggers(t *testing.T) {
	t.Parallel()
	var zero Logger
	if !zero.IsZero() {
		t.Fatal("zero Logger must report IsZero")
	}
	zero.Info("dropped")
	if Nop().IsZero() {
		t.Fatal("Nop() must not report IsZero")
	}
	Nop().Error("dropped", Err(errors.New("x")))
}

func TestNewWriterLevels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn").With(String("comp", "test"))
	log.Info("quiet")
	log.Warn("loud", Int("n", 3))
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info logged at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "comp=") || !strings.Contains(out, "n=") {
		t.Fatalf("output = %q", out)
	}
	if log.Enabled(LevelDebug) || !log.Enabled(LevelError) {
		t.Fatal("Enabled does not follow the configured level")
	}
}

type chatRecorder struct {
	mu    sync.Mutex
	texts []string
	lvls  []Level
}

func (c *chatRecorder) notify(_ context.Context, level Level, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	c.lvls = append(c.lvls, level)
	return errors.New("chat down")
}

func TestChatSinkForwardsAtMinLevel(t *testing.T) {
	svc, log := New(Config{Level: "debug", Chat: ChatConfig{Enabled: true, MinLevel: "warn"}})
	defer svc.Close()
	rec := &chatRecorder{}
	svc.SetNotifier(rec.notify)

	log.Info("not forwarded")
	log.Warn("config reload rejected", String("path", "/etc/tgnotify.yaml"))
	log.Error("job failed")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.texts) != 2 {
		t.Fatalf("forwarded %d events, want 2: %q", len(rec.texts), rec.texts)
	}
	if !strings.HasPrefix(rec.texts[0], "config reload rejected") || !strings.Contains(rec.texts[0], "- path=/etc/tgnotify.yaml") {
		t.Fatalf("text = %q", rec.texts[0])
	}
	if rec.lvls[0] != zerolog.WarnLevel || rec.lvls[1] != zerolog.ErrorLevel {
		t.Fatalf("levels = %v", rec.lvls)
	}
}

func TestLocalLoggerSkipsChatSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}, Chat: ChatConfig{Enabled: true}})
	defer svc.Close()
	local := svc.LocalLogger().With(String("comp", "tglog"))
	calls := 0
	svc.SetNotifier(func(context.Context, Level, string) error {
		calls++
		local.Error("transport failed while delivering")
		return nil
	})
	log.Error("first")
	if calls != 1 {
		t.Fatalf("notifier called %d times, want 1", calls)
	}
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "transport failed while delivering") {
		t.Fatalf("local event missing from file sink: %q", b)
	}
}

func TestChatSinkDeliversConcurrentEvents(t *testing.T) {
	svc, log := New(Config{Level: "info", Chat: ChatConfig{Enabled: true}})
	defer svc.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu    sync.Mutex
		texts []string
	)
	svc.SetNotifier(func(_ context.Context, _ Level, text string) error {
		mu.Lock()
		texts = append(texts, text)
		first := len(texts) == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Error("slow delivery")
	}()
	<-entered
	// Logged while the first delivery is still in flight.
	log.Error("job failed")
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 2 {
		t.Fatalf("delivered %d events, want 2: %q", len(texts), texts)
	}
}

func TestApplyFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	svc, log := New(Config{Level: "info"})
	defer svc.Close()

	svc.Apply(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	log.Info("to file", String("k", "v"))
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"message":"to file"`) || !strings.Contains(string(b), `"k":"v"`) {
		t.Fatalf("file content = %q", b)
	}
}
