package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 8 * time.Second

	DriverHTTP    = "http"
	DriverTelebot = "telebot"
)

// Config selects and configures a transport driver.
type Config struct {
	Driver         string
	Token          string
	BaseURL        string
	Timeout        time.Duration
	DisablePreview bool

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

var ErrNoToken = errors.New("telegram token is empty")

func (c Config) baseURL() string {
	b := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if b == "" {
		return DefaultBaseURL
	}
	return b
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// New builds the transport named by cfg.Driver ("http" when empty).
func New(cfg Config, log logx.Logger) (tglog.Transport, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNoToken
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverHTTP:
		return NewHTTPSender(cfg, log), nil
	case DriverTelebot:
		return NewBotSender(cfg, log)
	default:
		return nil, fmt.Errorf("unknown telegram transport %q (use %s or %s)", cfg.Driver, DriverHTTP, DriverTelebot)
	}
}
