package cronjob

import (
	"context"
	"fmt"
	"time"

	"tgnotify/pkg/tglog"
)

// Notifier is the subset of *tglog.Client used to report job runs.
type Notifier interface {
	Log(ctx context.Context, message string, level tglog.Level, opts ...tglog.CallOption) (bool, error)
}

// Job is a unit of monitored work.
type Job func(ctx context.Context) error

// Run announces name, runs job and reports completion (INFO, with duration)
// or failure (ERROR, with the error). It returns the job's error; delivery
// problems are not returned.
func Run(ctx context.Context, n Notifier, name string, job Job, opts ...tglog.CallOption) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	_, _ = n.Log(ctx, fmt.Sprintf("Starting cron job: %s", name), tglog.LevelInfo, opts...)

	err := job(ctx)
	if err != nil {
		_, _ = n.Log(ctx, fmt.Sprintf("Failed cron job: %s\nError: %s", name, err.Error()), tglog.LevelError, opts...)
		return err
	}
	_, _ = n.Log(ctx, fmt.Sprintf("Completed cron job: %s (Duration: %s seconds)", name, formatSeconds(time.Since(start))), tglog.LevelInfo, opts...)
	return nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}
