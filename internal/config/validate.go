package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tgnotify/internal/cronjob"
	"tgnotify/pkg/tglog"
)

const (
	EnvToken  = "TGNOTIFY_TOKEN"
	EnvChatID = "TGNOTIFY_CHAT_ID"
)

// ApplyEnv fills an empty token or chat ID from the environment.
func (c *Config) ApplyEnv() {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		c.Telegram.Token = strings.TrimSpace(os.Getenv(EnvToken))
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		c.Telegram.ChatID = strings.TrimSpace(os.Getenv(EnvChatID))
	}
}

// ParsedDialect returns the configured default dialect (HTML when unset).
func (t TelegramConfig) ParsedDialect() (tglog.Dialect, error) {
	if strings.TrimSpace(t.Dialect) == "" {
		return tglog.HTML, nil
	}
	return tglog.ParseDialect(t.Dialect)
}

// ParsedTimeout returns the transport timeout (8s when unset).
func (t TelegramConfig) ParsedTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("telegram.timeout", t.Timeout, 8*time.Second)
}

// Location returns the scheduler time zone (local time when unset).
func (s SchedulerConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}

// Validate reports every problem in c, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, fmt.Errorf("telegram.token is required (or set %s)", EnvToken))
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		errs = append(errs, fmt.Errorf("telegram.chat_id is required (or set %s)", EnvChatID))
	}
	if _, err := c.Telegram.ParsedDialect(); err != nil {
		errs = append(errs, fmt.Errorf("telegram.dialect: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Telegram.Transport)) {
	case "", "http", "telebot":
	default:
		errs = append(errs, fmt.Errorf("telegram.transport: unknown value %q (use http or telebot)", c.Telegram.Transport))
	}
	if _, err := c.Telegram.ParsedTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		path := fmt.Sprintf("jobs[%d]", i)
		name := strings.TrimSpace(j.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", path))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate job %q", path, name))
		}
		seen[name] = true
		if _, err := cronjob.Parser.Parse(strings.TrimSpace(j.Schedule)); err != nil {
			errs = append(errs, fmt.Errorf("%s.schedule: %w", path, err))
		}
		if len(j.Command) == 0 || strings.TrimSpace(j.Command[0]) == "" {
			errs = append(errs, fmt.Errorf("%s.command is required", path))
		}
		if _, err := ParseDurationField(path+".timeout", j.Timeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
