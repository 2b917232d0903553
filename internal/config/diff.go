package config

import (
	"reflect"
	"strings"

	"tgnotify/pkg/logx"
)

// Change describes the difference between two configs.
type Change struct {
	// Sections lists changed top-level sections, in a stable order.
	Sections []string
	// Fields are secret-free attributes for logging the change.
	Fields []logx.Field
	// RestartRequired lists sections that cannot be applied at runtime.
	RestartRequired []string
}

// SummarizeChange compares oldCfg and newCfg. Tokens are never included.
func SummarizeChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Change

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if !strings.EqualFold(strings.TrimSpace(ot.Dialect), strings.TrimSpace(nt.Dialect)) {
		ch.Sections = append(ch.Sections, "telegram.dialect")
		ch.Fields = append(ch.Fields, logx.String("telegram.dialect", strings.TrimSpace(nt.Dialect)))
	}
	if ot.Token != nt.Token || ot.ChatID != nt.ChatID ||
		ot.Transport != nt.Transport || ot.APIBase != nt.APIBase ||
		ot.Timeout != nt.Timeout || ot.DisablePreview != nt.DisablePreview {
		ch.Sections = append(ch.Sections, "telegram")
		ch.RestartRequired = append(ch.RestartRequired, "telegram")
		ch.Fields = append(ch.Fields,
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
			logx.String("telegram.chat_id", nt.ChatID),
			logx.String("telegram.transport", nt.Transport),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		ch.Sections = append(ch.Sections, "logging")
		ch.Fields = append(ch.Fields,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Chat.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Scheduler, newCfg.Scheduler) || !reflect.DeepEqual(oldCfg.Jobs, newCfg.Jobs) {
		ch.Sections = append(ch.Sections, "jobs")
		ch.RestartRequired = append(ch.RestartRequired, "jobs")
		ch.Fields = append(ch.Fields,
			logx.Int("jobs.count", len(newCfg.Jobs)),
			logx.String("scheduler.timezone", newCfg.Scheduler.Timezone),
		)
	}

	return ch
}

// Changed reports whether section is among the changed sections.
func (c Change) Changed(section string) bool {
	for _, s := range c.Sections {
		if s == section {
			return true
		}
	}
	return false
}
