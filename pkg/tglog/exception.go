package tglog

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

const pkgErrorsPath = "github.com/pkg/errors"

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Frame is one resolved stack frame of an exception report.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Location returns "file:line".
func (f Frame) Location() string { return f.File + ":" + strconv.Itoa(f.Line) }

// Exception is the structured description of an error used to build a report.
type Exception struct {
	Message string
	Type    string
	Code    int
	Stack   []Frame
}

// Location returns the originating "file:line" (the top stack frame), or "".
func (e Exception) Location() string {
	if len(e.Stack) == 0 {
		return ""
	}
	return e.Stack[0].Location()
}

// Trace renders the stack one "#n file(line): function" entry per line.
func (e Exception) Trace() string {
	var b strings.Builder
	for i, f := range e.Stack {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%d %s(%d): %s", i, f.File, f.Line, f.Function)
	}
	if len(e.Stack) > 0 {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "#%d {main}", len(e.Stack))
	return b.String()
}

// Report renders the exception as plain text, appending a Context section
// when extra is non-empty.
func (e Exception) Report(extra *Context) string {
	s := fmt.Sprintf("Exception: %s\nType: %s\nCode: %d\nFile: %s\n\nStack Trace:\n%s",
		e.Message, e.Type, e.Code, e.Location(), e.Trace())
	if extra != nil {
		s += "\n\nContext:\n" + SerializeContext(extra)
	}
	return s
}

// DescribeError extracts message, type, code and stack from err.
//
// The stack comes from the first error in the chain that carries one
// (github.com/pkg/errors style); otherwise it is captured here, skipping
// skip additional frames above the caller of DescribeError.
func DescribeError(err error, skip int) Exception {
	if err == nil {
		err = errors.New("<nil>")
	}
	ex := Exception{
		Message: err.Error(),
		Type:    errorTypeName(err),
	}

	var coder Coder
	if errors.As(err, &coder) {
		ex.Code = coder.ErrorCode()
	}

	var pcs []uintptr
	var st stackTracer
	if errors.As(err, &st) {
		trace := st.StackTrace()
		pcs = make([]uintptr, len(trace))
		for i, f := range trace {
			pcs[i] = uintptr(f)
		}
	} else {
		buf := make([]uintptr, 64)
		n := runtime.Callers(2+skip, buf)
		pcs = buf[:n]
	}
	ex.Stack = resolveFrames(pcs)
	return ex
}

// resolveFrames turns return PCs into frames, dropping the leading frames that
// belong to this package or the runtime (panic machinery, error constructors).
func resolveFrames(pcs []uintptr) []Frame {
	out := make([]Frame, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	leading := true
	for {
		fr, more := frames.Next()
		if fr.File != "" {
			internal := inPackage(fr.File) || strings.HasPrefix(fr.Function, "runtime.")
			if !(leading && internal) {
				leading = false
				if fr.Function != "runtime.goexit" {
					out = append(out, Frame{Function: fr.Function, File: fr.File, Line: fr.Line})
				}
			}
		}
		if !more {
			break
		}
	}
	return out
}

// errorTypeName names the first error in the chain that is not a
// github.com/pkg/errors wrapper, falling back to the outermost type.
func errorTypeName(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		t := reflect.TypeOf(e)
		base := t
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if base.PkgPath() != pkgErrorsPath {
			return t.String()
		}
	}
	return reflect.TypeOf(err).String()
}
