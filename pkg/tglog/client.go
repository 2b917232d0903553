package tglog

import (
	"context"
	"fmt"
	"sync"
	"time"

	logx "tgnotify/pkg/logx"
)

// Transport delivers a formatted message to a chat.
//
// It returns false (with a nil error) when delivery did not succeed, e.g. the
// endpoint was unreachable or answered with a non-success status. A non-nil
// error is a transport fault and is passed through to the caller unchanged.
type Transport interface {
	Send(ctx context.Context, text, chatID string, d Dialect) (bool, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, text, chatID string, d Dialect) (bool, error)

func (f TransportFunc) Send(ctx context.Context, text, chatID string, d Dialect) (bool, error) {
	return f(ctx, text, chatID, d)
}

// Client formats leveled messages and relays them through a Transport.
//
// The default dialect is the only mutable setting. It is guarded by a mutex,
// so a Client may be shared between goroutines.
type Client struct {
	token  string
	chatID string

	mu      sync.RWMutex
	dialect Dialect

	transport Transport
	callSite  CallSiteFunc
	now       func() time.Time
	log       logx.Logger
}

// Option configures a Client at construction.
type Option func(*Client)

// WithDialect sets the default dialect. Invalid values are ignored.
func WithDialect(d Dialect) Option {
	return func(c *Client) {
		if d.Valid() {
			c.dialect = d
		}
	}
}

// WithCallSite installs the caller-location provider.
func WithCallSite(fn CallSiteFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.callSite = fn
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used to report delivery outcomes.
func WithLogger(log logx.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the bot token and default chat.
// The default dialect is HTML unless WithDialect says otherwise.
func New(token, chatID string, tr Transport, opts ...Option) *Client {
	c := &Client{
		token:     token,
		chatID:    chatID,
		dialect:   HTML,
		transport: tr,
		callSite:  NoCallSite,
		now:       time.Now,
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	return c
}

func (c *Client) Token() string  { return c.token }
func (c *Client) ChatID() string { return c.chatID }

// Dialect returns the current default dialect.
func (c *Client) Dialect() Dialect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dialect
}

// SetDialect replaces the default dialect.
// Unknown values are rejected with ErrInvalidConfiguration and leave the client unchanged.
func (c *Client) SetDialect(d Dialect) error {
	if !d.Valid() {
		return fmt.Errorf("%w: unsupported dialect %v", ErrInvalidConfiguration, d)
	}
	c.mu.Lock()
	c.dialect = d
	c.mu.Unlock()
	return nil
}

// CallOption overrides a setting for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	chatID     string
	dialect    Dialect
	hasDialect bool
	url        string
	file       string
	noCallSite bool
	extra      *Context
}

// Chat sends to chatID instead of the default chat.
func Chat(chatID string) CallOption { return func(o *callOptions) { o.chatID = chatID } }

// UseDialect renders this call in d instead of the default dialect.
func UseDialect(d Dialect) CallOption {
	return func(o *callOptions) {
		o.dialect = d
		o.hasDialect = true
	}
}

// URL sets the URL detail line, skipping call-site lookup for it.
func URL(u string) CallOption { return func(o *callOptions) { o.url = u } }

// File sets the File detail line, skipping call-site lookup for it.
func File(f string) CallOption { return func(o *callOptions) { o.file = f } }

// SkipCallSite disables caller-location lookup for this call.
func SkipCallSite() CallOption { return func(o *callOptions) { o.noCallSite = true } }

// WithContext attaches extra key/value data to an Exception report.
// Other calls ignore it.
func WithContext(m *Context) CallOption { return func(o *callOptions) { o.extra = m } }

func (c *Client) resolve(opts []CallOption) callOptions {
	var o callOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.chatID == "" {
		o.chatID = c.chatID
	}
	if !o.hasDialect {
		o.dialect = c.Dialect()
	}
	return o
}

// Log formats message at level and performs a single delivery attempt.
// The boolean is the transport's verdict, returned unchanged.
func (c *Client) Log(ctx context.Context, message string, level Level, opts ...CallOption) (bool, error) {
	return c.deliver(ctx, message, level, c.resolve(opts))
}

func (c *Client) deliver(ctx context.Context, message string, level Level, o callOptions) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !o.noCallSite && (o.url == "" || o.file == "") {
		cs := c.callSite(ctx)
		if o.url == "" {
			o.url = cs.URL
		}
		if o.file == "" {
			o.file = cs.File
		}
	}

	rec := Record{
		Message: message,
		Level:   level,
		Dialect: o.dialect,
		ChatID:  o.chatID,
		URL:     o.url,
		File:    o.file,
		Time:    c.now(),
	}
	text := FormatRecord(rec)

	if c.transport == nil {
		c.log.Warn("no transport configured; message dropped", logx.String("level", level.String()))
		return false, nil
	}

	start := time.Now()
	ok, err := c.transport.Send(ctx, text, rec.ChatID, rec.Dialect)
	fields := []logx.Field{
		logx.String("level", level.String()),
		logx.String("chat", rec.ChatID),
		logx.String("dialect", rec.Dialect.String()),
		logx.Bool("ok", ok),
		logx.Duration("took", time.Since(start)),
	}
	switch {
	case err != nil:
		c.log.Debug("notification transport error", append(fields, logx.Err(err))...)
	case !ok:
		c.log.Warn("notification not delivered", fields...)
	default:
		c.log.Debug("notification delivered", fields...)
	}
	return ok, err
}

func (c *Client) Info(ctx context.Context, message string, opts ...CallOption) (bool, error) {
	return c.Log(ctx, message, LevelInfo, opts...)
}

func (c *Client) Warning(ctx context.Context, message string, opts ...CallOption) (bool, error) {
	return c.Log(ctx, message, LevelWarning, opts...)
}

func (c *Client) Error(ctx context.Context, message string, opts ...CallOption) (bool, error) {
	return c.Log(ctx, message, LevelError, opts...)
}

// Exception reports err at ERROR level with its message, type, code,
// origin and stack trace, plus the WithContext map when given.
// The File line is the error's origin; no URL is attached.
func (c *Client) Exception(ctx context.Context, err error, opts ...CallOption) (bool, error) {
	return c.exception(ctx, err, 1, opts)
}

func (c *Client) exception(ctx context.Context, err error, skip int, opts []CallOption) (bool, error) {
	ex := DescribeError(err, skip+1)
	o := c.resolve(opts)
	o.url = ""
	o.file = ex.Location()
	o.noCallSite = true
	return c.deliver(ctx, ex.Report(o.extra), LevelError, o)
}
