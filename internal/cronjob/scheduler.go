package cronjob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

// Parser accepts five-field specs and descriptors such as @daily or @every 1h.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Spec is one scheduled job.
type Spec struct {
	Name     string
	Schedule string
	Job      Job
	// ChatID overrides the notifier's default chat for this job.
	ChatID string
}

// EntryInfo describes a registered job.
type EntryInfo struct {
	Name string
	Next time.Time
	Prev time.Time
}

type Scheduler struct {
	mu      sync.Mutex
	n       Notifier
	log     logx.Logger
	c       *cron.Cron
	names   map[cron.EntryID]string
	running bool

	// runCtx is cancelled on Stop so in-flight jobs see shutdown.
	runCtx    context.Context
	runCancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler evaluating schedules in loc.
func NewScheduler(n Notifier, loc *time.Location, log logx.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "cronjob"))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		n:   n,
		log: log,
		c: cron.New(
			cron.WithParser(Parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		names:     map[cron.EntryID]string{},
		runCtx:    ctx,
		runCancel: cancel,
	}
}

// Add registers s. It fails on an invalid schedule.
func (s *Scheduler) Add(spec Spec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if spec.Job == nil {
		return fmt.Errorf("job %q: no work", name)
	}
	var opts []tglog.CallOption
	if spec.ChatID != "" {
		opts = append(opts, tglog.Chat(spec.ChatID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := s.runCtx
	id, err := s.c.AddFunc(strings.TrimSpace(spec.Schedule), func() {
		start := time.Now()
		err := Run(ctx, s.n, name, spec.Job, opts...)
		if err != nil {
			s.log.Warn("job failed", logx.String("job", name), logx.Duration("took", time.Since(start)), logx.Err(err))
			return
		}
		s.log.Info("job completed", logx.String("job", name), logx.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("job %q: schedule %q: %w", name, spec.Schedule, err)
	}
	s.names[id] = name
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("jobs", len(s.names)), logx.String("tz", s.c.Location().String()))
}

// Stop halts scheduling, cancels running jobs and waits for them or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	done := s.c.Stop()
	s.runCancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries lists registered jobs with their next and previous run times.
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.c.Entries()
	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryInfo{Name: s.names[e.ID], Next: e.Next, Prev: e.Prev})
	}
	return out
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
