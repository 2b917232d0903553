package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"tgnotify/internal/config"
	"tgnotify/internal/cronjob"
	"tgnotify/internal/runtime/supervisor"
	"tgnotify/internal/transport/telegram"
	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

// App is the long-running job monitor: it owns the notification client,
// the cron scheduler and the config watcher.
type App struct {
	cfgm   *config.Manager
	logs   *logx.Service
	log    logx.Logger
	client *tglog.Client
	sched  *cronjob.Scheduler

	mu      sync.Mutex
	sup     *supervisor.Supervisor
	started bool
}

// New loads cfgPath and wires every component without starting anything.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	logs, log := logx.New(LoggingConfig(cfg))
	// The client also delivers the chat sink's events, so it must not log into it.
	client, err := NewClient(cfg, logs.LocalLogger())
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	logs.SetNotifier(ChatNotifier(client))

	sched, err := NewScheduler(cfg, client, log)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(ValidateReload)
	return &App{
		cfgm:   cfgm,
		logs:   logs,
		log:    log.With(logx.String("comp", "app")),
		client: client,
		sched:  sched,
	}, nil
}

func (a *App) Client() *tglog.Client         { return a.client }
func (a *App) Scheduler() *cronjob.Scheduler { return a.sched }

// LoggingConfig maps the logging section onto logx.
func LoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:  cfg.Logging.Chat.Enabled,
			MinLevel: cfg.Logging.Chat.MinLevel,
		},
	}
}

// NewClient builds the transport and notification client described by cfg.
func NewClient(cfg *config.Config, log logx.Logger) (*tglog.Client, error) {
	dialect, err := cfg.Telegram.ParsedDialect()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Telegram.ParsedTimeout()
	if err != nil {
		return nil, err
	}
	tr, err := telegram.New(telegram.Config{
		Driver:         cfg.Telegram.Transport,
		Token:          cfg.Telegram.Token,
		BaseURL:        cfg.Telegram.APIBase,
		Timeout:        timeout,
		DisablePreview: cfg.Telegram.DisablePreview,
	}, log)
	if err != nil {
		return nil, err
	}
	return tglog.New(cfg.Telegram.Token, cfg.Telegram.ChatID, tr,
		tglog.WithDialect(dialect),
		tglog.WithCallSite(tglog.RuntimeCallSite),
		tglog.WithLogger(log.With(logx.String("comp", "tglog"))),
	), nil
}

// ChatNotifier forwards logx chat-sink events through client as plain text,
// so log content can never break the chat markup.
func ChatNotifier(client *tglog.Client) logx.Notifier {
	return func(ctx context.Context, level logx.Level, text string) error {
		lvl := tglog.LevelInfo
		switch {
		case level >= logx.LevelError:
			lvl = tglog.LevelError
		case level >= logx.LevelWarn:
			lvl = tglog.LevelWarning
		}
		ok, err := client.Log(ctx, text, lvl, tglog.UseDialect(tglog.PlainText), tglog.SkipCallSite())
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("log event not delivered")
		}
		return nil
	}
}

// ValidateReload rejects a reloaded config whose client cannot be built,
// so a broken transport setting never replaces a working one.
func ValidateReload(_ context.Context, cfg *config.Config) error {
	_, err := NewClient(cfg, logx.Nop())
	return err
}

// NewScheduler registers every configured job as a monitored command.
func NewScheduler(cfg *config.Config, n cronjob.Notifier, log logx.Logger) (*cronjob.Scheduler, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	s := cronjob.NewScheduler(n, loc, log)
	for i, j := range cfg.Jobs {
		timeout, err := config.ParseDurationField(fmt.Sprintf("jobs[%d].timeout", i), j.Timeout)
		if err != nil {
			return nil, err
		}
		if err := s.Add(cronjob.Spec{
			Name:     j.Name,
			Schedule: j.Schedule,
			Job:      cronjob.Command(j.Command, j.Dir, timeout),
			ChatID:   strings.TrimSpace(j.ChatID),
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start runs the scheduler and the config watcher, then reports readiness to systemd.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	a.started = true

	sup := supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))
	a.sup = sup

	updates := a.cfgm.Subscribe(1)
	sup.GoRestart("config.watch", a.cfgm.Watch, supervisor.WithRestartBackoff(time.Second, 30*time.Second))
	sup.Go("config.apply", func(ctx context.Context) error {
		defer a.cfgm.Unsubscribe(updates)
		old := a.cfgm.Get()
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-updates:
				a.applyConfig(old, cfg)
				old = cfg
			}
		}
	})

	a.sched.Start()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("systemd notified ready")
	}
	a.log.Info("started",
		logx.String("config", a.cfgm.Path()),
		logx.String("chat", a.client.ChatID()),
		logx.String("dialect", a.client.Dialect().String()),
		logx.Int("jobs", len(a.sched.Entries())),
	)
	return nil
}

// applyConfig applies what can change at runtime: logging and the default dialect.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	ch := config.SummarizeChange(oldCfg, newCfg)
	if len(ch.Sections) == 0 {
		return
	}
	a.log.Info("config changed", append(ch.Fields, logx.Strings("sections", ch.Sections))...)

	if ch.Changed("logging") {
		a.logs.Apply(LoggingConfig(newCfg))
	}
	if ch.Changed("telegram.dialect") {
		d, err := newCfg.Telegram.ParsedDialect()
		if err == nil {
			err = a.client.SetDialect(d)
		}
		if err != nil {
			a.log.Warn("dialect change rejected; keeping previous", logx.String("dialect", a.client.Dialect().String()), logx.Err(err))
		}
	}
	if len(ch.RestartRequired) > 0 {
		a.log.Warn("config change requires restart", logx.Strings("sections", ch.RestartRequired))
	}
}

// Stop stops the scheduler and watcher, waiting at most until ctx is done.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	sup := a.sup
	a.sup = nil
	a.mu.Unlock()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, done := context.WithTimeout(ctx, 30*time.Second)
	defer done()

	err := a.sched.Stop(ctx)
	if sup != nil {
		err = errors.Join(err, sup.Stop(ctx))
		for _, st := range sup.Snapshot() {
			if st.Restarts > 0 || st.Panics > 0 {
				a.log.Warn("loop was unstable", logx.String("name", st.Name), logx.Int("restarts", st.Restarts), logx.Int("panics", st.Panics), logx.String("last_err", st.LastErr))
			}
		}
	}
	a.log.Info("stopped")
	return errors.Join(err, a.logs.Close())
}
