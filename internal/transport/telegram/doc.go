// Package telegram implements tglog.Transport against the Telegram Bot API.
//
// Two drivers are available:
//   - "http": a single form-encoded POST to <base>/bot<token>/sendMessage
//   - "telebot": gopkg.in/telebot.v4, splitting texts longer than one message
package telegram
