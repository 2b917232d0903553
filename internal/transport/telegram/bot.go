package telegram

import (
	"context"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

// BotSender delivers through a telebot.v4 bot that is never started:
// it only sends, it does not poll for updates.
type BotSender struct {
	bot            *tele.Bot
	token          string
	disablePreview bool
	log            logx.Logger
}

func NewBotSender(cfg Config, log logx.Logger) (*BotSender, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	token := strings.TrimSpace(cfg.Token)
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.baseURL(),
		Token:   token,
		Client:  cfg.httpClient(),
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &BotSender{
		bot:            b,
		token:          token,
		disablePreview: cfg.DisablePreview,
		log:            log.With(logx.String("comp", "telegram.telebot")),
	}, nil
}

// chatRecipient lets both numeric IDs and "@channel" usernames address a chat.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

func recipient(chatID string) tele.Recipient {
	if id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64); err == nil {
		return tele.ChatID(id)
	}
	return chatRecipient(strings.TrimSpace(chatID))
}

// Send delivers text, split into chunks when it exceeds one Telegram message.
// Any chunk failing makes the delivery a soft failure.
func (s *BotSender) Send(ctx context.Context, text, chatID string, d tglog.Dialect) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	to := recipient(chatID)
	opts := &tele.SendOptions{
		ParseMode:             tele.ParseMode(d.ParseMode()),
		DisableWebPagePreview: s.disablePreview,
	}
	for i, chunk := range splitText(text, textLimit, d) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if _, err := s.bot.Send(to, chunk, opts); err != nil {
			s.log.Warn("telebot send failed",
				logx.String("chat", chatID),
				logx.Int("chunk", i),
				logx.String("err", strings.ReplaceAll(err.Error(), s.token, "<redacted>")),
			)
			return false, nil
		}
	}
	return true, nil
}
