package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

// HTTPSender posts each message with one form-encoded sendMessage request.
type HTTPSender struct {
	endpoint       string
	token          string
	disablePreview bool
	http           *http.Client
	log            logx.Logger
}

func NewHTTPSender(cfg Config, log logx.Logger) *HTTPSender {
	if log.IsZero() {
		log = logx.Nop()
	}
	token := strings.TrimSpace(cfg.Token)
	return &HTTPSender{
		endpoint:       cfg.baseURL() + "/bot" + token + "/sendMessage",
		token:          token,
		disablePreview: cfg.DisablePreview,
		http:           cfg.httpClient(),
		log:            log.With(logx.String("comp", "telegram.http")),
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send makes a single delivery attempt.
// Network failures and non-success answers yield false with a nil error;
// only a cancelled context or an unbuildable request is returned as an error.
func (s *HTTPSender) Send(ctx context.Context, text, chatID string, d tglog.Dialect) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if pm := d.ParseMode(); pm != "" {
		form.Set("parse_mode", pm)
	}
	if s.disablePreview {
		form.Set("disable_web_page_preview", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, errors.New(s.redact(err.Error()))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		s.log.Warn("sendMessage request failed", logx.String("err", s.redact(err.Error())), logx.Duration("took", time.Since(start)))
		return false, nil
	}
	defer resp.Body.Close()

	var out apiResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode/100 != 2 || !out.OK {
		s.log.Warn("sendMessage rejected",
			logx.Int("http", resp.StatusCode),
			logx.Int("code", out.ErrorCode),
			logx.String("description", out.Description),
			logx.String("chat", chatID),
		)
		return false, nil
	}
	return true, nil
}

func (s *HTTPSender) redact(msg string) string {
	if s.token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, s.token, "<redacted>")
}
