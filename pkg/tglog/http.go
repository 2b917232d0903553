package tglog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Middleware records the request URI in the request context so that
// RuntimeCallSite can report it as the URL detail line.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestURL(r.Context(), r.URL.RequestURI())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recoverer reports handler panics through c.Exception and answers 500.
// http.ErrAbortHandler is re-panicked untouched.
func Recoverer(c *Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				err := pkgerrors.WithStack(&PanicError{Value: v})

				// The request context may already be cancelled; delivery should not depend on it.
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 15*time.Second)
				defer cancel()
				extra := NewContext(
					"method", r.Method,
					"url", r.URL.RequestURI(),
					"remote_addr", r.RemoteAddr,
				)
				_, _ = c.Exception(ctx, err, WithContext(extra))

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
