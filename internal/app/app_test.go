package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tgnotify/internal/config"
	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

type fakeAPI struct {
	mu    sync.Mutex
	forms []url.Values
	ok    bool
}

func newFakeAPI(t *testing.T, ok bool) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{ok: ok}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		api.mu.Lock()
		api.forms = append(api.forms, r.PostForm)
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if !api.ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) sent() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.forms...)
}

func testConfig(apiBase string) *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{
			Token:   "123:abc",
			ChatID:  "-100",
			Dialect: "HTML",
			APIBase: apiBase,
			Timeout: "2s",
		},
		Logging: config.LoggingConfig{Level: "info"},
	}
}

func TestNewClientUsesConfig(t *testing.T) {
	t.Parallel()
	api, srv := newFakeAPI(t, true)
	cfg := testConfig(srv.URL)
	cfg.Telegram.Dialect = "MarkdownV2"

	client, err := NewClient(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if client.Dialect() != tglog.MarkdownV2 || client.ChatID() != "-100" {
		t.Fatalf("client dialect=%v chat=%q", client.Dialect(), client.ChatID())
	}
	ok, err := client.Info(context.Background(), "hello")
	if err != nil || !ok {
		t.Fatalf("Info() = %v, %v", ok, err)
	}
	forms := api.sent()
	if len(forms) != 1 || forms[0].Get("parse_mode") != "MarkdownV2" || forms[0].Get("chat_id") != "-100" {
		t.Fatalf("forms = %v", forms)
	}
	if !strings.Contains(forms[0].Get("text"), "INFO*: hello") {
		t.Fatalf("text = %q", forms[0].Get("text"))
	}
}

func TestNewClientRejectsBadTransport(t *testing.T) {
	t.Parallel()
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Telegram.Transport = "pigeon"
	if _, err := NewClient(cfg, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestChatNotifier(t *testing.T) {
	t.Parallel()
	api, srv := newFakeAPI(t, true)
	client, err := NewClient(testConfig(srv.URL), logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	notify := ChatNotifier(client)
	if err := notify(context.Background(), logx.LevelWarn, "config reload rejected\n- path=<x>"); err != nil {
		t.Fatalf("notify() error: %v", err)
	}
	forms := api.sent()
	if len(forms) != 1 {
		t.Fatalf("got %d sends", len(forms))
	}
	if pm := forms[0].Get("parse_mode"); pm != "" {
		t.Fatalf("parse_mode = %q, want plain text", pm)
	}
	text := forms[0].Get("text")
	if !strings.Contains(text, "] WARNING: config reload rejected") || !strings.Contains(text, "- path=<x>") {
		t.Fatalf("text = %q", text)
	}
	if strings.Contains(text, "File:") {
		t.Fatalf("chat sink events must not carry a call site: %q", text)
	}
}

func TestChatNotifierNotDelivered(t *testing.T) {
	t.Parallel()
	_, srv := newFakeAPI(t, false)
	client, err := NewClient(testConfig(srv.URL), logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := ChatNotifier(client)(context.Background(), logx.LevelError, "x"); err == nil {
		t.Fatal("expected error when the chat rejects the message")
	}
}

func TestNewSchedulerRegistersJobs(t *testing.T) {
	t.Parallel()
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Scheduler.Timezone = "UTC"
	cfg.Jobs = []config.JobConfig{
		{Name: "backup", Schedule: "0 3 * * *", Command: []string{"true"}, Timeout: "1m"},
		{Name: "rotate", Schedule: "@weekly", Command: []string{"true"}, ChatID: " 42 "},
	}
	s, err := NewScheduler(cfg, nil, logx.Nop())
	if err != nil {
		t.Fatalf("NewScheduler() error: %v", err)
	}
	if got := len(s.Entries()); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}

	cfg.Jobs[1].Timeout = "soon"
	if _, err := NewScheduler(cfg, nil, logx.Nop()); err == nil {
		t.Fatal("expected error for bad timeout")
	}
}

func TestApplyConfigDialect(t *testing.T) {
	t.Parallel()
	_, srv := newFakeAPI(t, true)
	oldCfg := testConfig(srv.URL)
	logs, log := logx.New(LoggingConfig(oldCfg))
	defer logs.Close()
	client, err := NewClient(oldCfg, log)
	if err != nil {
		t.Fatal(err)
	}
	a := &App{logs: logs, log: log, client: client}

	newCfg := testConfig(srv.URL)
	newCfg.Telegram.Dialect = "Markdown"
	a.applyConfig(oldCfg, newCfg)
	if client.Dialect() != tglog.Markdown {
		t.Fatalf("dialect = %v, want Markdown", client.Dialect())
	}

	bad := testConfig(srv.URL)
	bad.Telegram.Dialect = "Klingon"
	a.applyConfig(newCfg, bad)
	if client.Dialect() != tglog.Markdown {
		t.Fatalf("dialect = %v, rejected change must keep Markdown", client.Dialect())
	}
}

func TestAppLifecycle(t *testing.T) {
	api, srv := newFakeAPI(t, true)
	dir := t.TempDir()
	path := filepath.Join(dir, "tgnotify.yaml")
	content := "telegram:\n  token: \"123:abc\"\n  chat_id: \"-100\"\n  api_base: " + srv.URL + "\n" +
		"logging:\n  level: error\n  console: false\n  file:\n    enabled: true\n    path: " + filepath.Join(dir, "tgnotify.log") + "\n" +
		"  telegram:\n    enabled: false\n    min_level: error\n" +
		"jobs:\n  - name: tick\n    schedule: \"@every 1s\"\n    command: [\"true\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := New(path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(api.sent()) < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	forms := api.sent()
	if len(forms) < 2 {
		t.Fatalf("got %d sends, want the job's start and completion", len(forms))
	}
	if !strings.Contains(forms[0].Get("text"), "Starting cron job: tick") {
		t.Fatalf("first text = %q", forms[0].Get("text"))
	}
}

func TestValidateReload(t *testing.T) {
	t.Parallel()
	cfg := testConfig("http://127.0.0.1:1")
	if err := ValidateReload(context.Background(), cfg); err != nil {
		t.Fatalf("ValidateReload() = %v", err)
	}
	cfg.Telegram.Transport = "carrier-pigeon"
	if err := ValidateReload(context.Background(), cfg); err == nil {
		t.Fatal("expected error for a config whose client cannot be built")
	}
}
