package tglog

import (
	"context"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// CallSite is the best-effort origin of a log call.
// Empty fields mean "unknown".
type CallSite struct {
	URL  string
	File string
}

// CallSiteFunc resolves the origin of a log call. It must not fail.
type CallSiteFunc func(ctx context.Context) CallSite

// NoCallSite reports nothing. It is the Client default.
func NoCallSite(context.Context) CallSite { return CallSite{} }

// pkgDir holds this package's sources. Frames are matched by file, not by
// function name: closures inlined into a caller carry the caller's name.
var pkgDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}()

// inPackage reports whether file is a non-test source of this package.
func inPackage(file string) bool {
	return filepath.Dir(file) == pkgDir && !strings.HasSuffix(file, "_test.go")
}

// RuntimeCallSite reports the first stack frame outside this package as
// "path/to/file.go:line", and the request URL stored in ctx (see Middleware).
func RuntimeCallSite(ctx context.Context) CallSite {
	cs := CallSite{URL: RequestURL(ctx)}

	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		if fr.File != "" && !inPackage(fr.File) {
			cs.File = fr.File + ":" + strconv.Itoa(fr.Line)
			break
		}
		if !more {
			break
		}
	}
	return cs
}

type requestURLKey struct{}

// WithRequestURL attaches the URL of the request being served to ctx.
func WithRequestURL(ctx context.Context, url string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestURLKey{}, url)
}

// RequestURL returns the URL attached by WithRequestURL, or "".
func RequestURL(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(requestURLKey{}).(string)
	return s
}
