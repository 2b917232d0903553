package config

// Config is the tgnotify configuration file (JSON or YAML).
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
	Jobs      []JobConfig     `json:"jobs,omitempty"`
}

// TelegramConfig configures the notification client and its transport.
//
// Defaults (when fields are omitted/zero):
//   - dialect: "HTML"
//   - transport: "http"
//   - api_base: "https://api.telegram.org"
//   - timeout: "8s"
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID string `json:"chat_id"`

	// Dialect is one of plain, HTML, Markdown, MarkdownV2 (case-insensitive).
	Dialect   string `json:"dialect,omitempty"`
	Transport string `json:"transport,omitempty"`
	APIBase   string `json:"api_base,omitempty"`
	// Timeout is a Go duration string (e.g. "8s").
	Timeout        string `json:"timeout,omitempty"`
	DisablePreview bool   `json:"disable_preview,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingChat forwards the daemon's own log events at or above MinLevel to the chat.
type LoggingChat struct {
	Enabled  bool   `json:"enabled"`
	MinLevel string `json:"min_level"`
}

// SchedulerConfig controls the cron job monitor.
type SchedulerConfig struct {
	// Timezone is an IANA name, e.g. "Asia/Jakarta". Empty means local time.
	Timezone string `json:"timezone,omitempty"`
}

// JobConfig describes one monitored cron job.
//
// Example:
//
//	{ "name": "Daily Backup", "schedule": "0 3 * * *", "command": ["/usr/local/bin/backup.sh"], "timeout": "30m" }
type JobConfig struct {
	Name     string   `json:"name"`
	Schedule string   `json:"schedule"`
	Command  []string `json:"command"`
	Dir      string   `json:"dir,omitempty"`
	// Timeout is a Go duration string; "0s" or empty disables it.
	Timeout string `json:"timeout,omitempty"`
	// ChatID overrides telegram.chat_id for this job's reports.
	ChatID string `json:"chat_id,omitempty"`
}
