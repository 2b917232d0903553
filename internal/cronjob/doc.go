// Package cronjob monitors jobs: each run is announced, timed and its
// outcome (completion or failure) is reported through a notifier.
//
// Scheduler runs configured shell commands on cron schedules using
// github.com/robfig/cron/v3.
package cronjob
