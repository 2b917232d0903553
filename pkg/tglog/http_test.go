package tglog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"tgnotify/pkg/tglog"
)

func TestMiddlewareStoresRequestURL(t *testing.T) {
	t.Parallel()
	var got string
	h := tglog.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = tglog.RequestURL(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test-url?x=1", nil))
	if got != "/test-url?x=1" {
		t.Fatalf("RequestURL = %q", got)
	}
}

func TestRecovererReportsPanic(t *testing.T) {
	t.Parallel()
	r := &recorder{ok: true}
	c := newClient(r, tglog.WithDialect(tglog.PlainText))

	var panicLine int
	h := tglog.Recoverer(c)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _, line, _ := runtime.Caller(0)
		panicLine = line + 1
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	s := r.only(t)
	for _, want := range []string{"Exception: panic: kaboom", "Type: *tglog.PanicError", "method: POST", "url: /orders"} {
		if !strings.Contains(s.text, want) {
			t.Fatalf("report lacks %q:\n%s", want, s.text)
		}
	}
	// The origin is the panicking handler, even when Recoverer is inlined.
	wantFile := "http_test.go:" + strconv.Itoa(panicLine)
	fileLine := ""
	for _, line := range strings.Split(s.text, "\n") {
		if strings.HasPrefix(line, "File: ") {
			fileLine = line
			break
		}
	}
	if !strings.HasSuffix(fileLine, wantFile) {
		t.Fatalf("File line = %q, want suffix %q:\n%s", fileLine, wantFile, s.text)
	}
}

func TestRecovererRepanicsAbort(t *testing.T) {
	t.Parallel()
	r := &recorder{ok: true}
	c := newClient(r)
	h := tglog.Recoverer(c)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("recovered %v, want http.ErrAbortHandler", v)
		}
		if len(r.sent) != 0 {
			t.Fatal("abort must not be reported")
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestURLEmpty(t *testing.T) {
	t.Parallel()
	if got := tglog.RequestURL(context.Background()); got != "" {
		t.Fatalf("RequestURL = %q", got)
	}
}
