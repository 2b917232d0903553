package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tgnotify/internal/app"
	"tgnotify/internal/config"
	"tgnotify/pkg/logx"
	"tgnotify/pkg/tglog"
)

const defaultConfigPath = "./tgnotify.yaml"

const (
	exitOK           = 0
	exitError        = 1
	exitNotDelivered = 2
)

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: tgnotify <command> [flags]

commands:
  send   send one message (args, or stdin when no args)
  run    run the cron job monitor until interrupted
  check  validate the config file and print a summary

environment:
  TGNOTIFY_TOKEN, TGNOTIFY_CHAT_ID fill an empty telegram.token / telegram.chat_id`)
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(exitError)
	}
	var code int
	switch os.Args[1] {
	case "send":
		code = runSend(os.Args[2:], os.Stdin, os.Stdout, os.Stderr)
	case "run":
		code = runDaemon(os.Args[2:], os.Stderr)
	case "check":
		code = runCheck(os.Args[2:], os.Stdout, os.Stderr)
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage(os.Stderr)
		code = exitError
	}
	os.Exit(code)
}

// loadConfig reads path. When the default path does not exist, the config is
// built from the environment alone.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.NewManager(path).Load()
	if err == nil {
		return cfg, nil
	}
	if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg = &config.Config{}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func flagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", defaultConfigPath, "path to config (json or yaml)")
	return fs, cfgPath
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func runSend(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, cfgPath := flagSet("send", stderr)
	level := fs.String("level", "info", "info, warning or error")
	chat := fs.String("chat", "", "chat id override")
	dialect := fs.String("dialect", "", "plain, HTML, Markdown or MarkdownV2 (default from config)")
	url := fs.String("url", "", "URL detail line")
	file := fs.String("file", "", "File detail line")
	timeout := fs.Duration("timeout", 30*time.Second, "overall send timeout")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	lvl, err := tglog.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	msg := strings.Join(fs.Args(), " ")
	if msg == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintln(stderr, "error: read stdin:", err)
			return exitError
		}
		msg = strings.TrimRight(string(b), "\n")
	}
	if msg == "" {
		fmt.Fprintln(stderr, "error: empty message")
		return exitError
	}

	cfg, err := loadConfig(*cfgPath, isSet(fs, "config"))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	logLevel := "warn"
	if *verbose {
		logLevel = "debug"
	}
	client, err := app.NewClient(cfg, logx.NewWriter(stderr, logLevel))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	opts := []tglog.CallOption{tglog.SkipCallSite()}
	if *chat != "" {
		opts = append(opts, tglog.Chat(*chat))
	}
	if *dialect != "" {
		d, err := tglog.ParseDialect(*dialect)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitError
		}
		opts = append(opts, tglog.UseDialect(d))
	}
	if *url != "" {
		opts = append(opts, tglog.URL(*url))
	}
	if *file != "" {
		opts = append(opts, tglog.File(*file))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ok, err := client.Log(ctx, msg, lvl, opts...)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	if !ok {
		fmt.Fprintln(stderr, "not delivered")
		return exitNotDelivered
	}
	fmt.Fprintln(stdout, "delivered")
	return exitOK
}

func runDaemon(args []string, stderr io.Writer) int {
	fs, cfgPath := flagSet("run", stderr)
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, "fatal:", err)
		return exitError
	}
	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(stderr, "fatal start:", err)
		return exitError
	}

	<-ctx.Done()
	if err := a.Stop(context.Background()); err != nil {
		fmt.Fprintln(stderr, "stop:", err)
		return exitError
	}
	return exitOK
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs, cfgPath := flagSet("check", stderr)
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	cfg, err := config.NewManager(*cfgPath).Load()
	if err != nil {
		fmt.Fprintln(stderr, "invalid:", err)
		return exitError
	}
	d, _ := cfg.Telegram.ParsedDialect()
	transport := cfg.Telegram.Transport
	if transport == "" {
		transport = "http"
	}
	fmt.Fprintf(stdout, "config ok: chat=%s dialect=%s transport=%s jobs=%d\n",
		cfg.Telegram.ChatID, d, transport, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		fmt.Fprintf(stdout, "  job %q schedule=%q command=%q\n", j.Name, j.Schedule, strings.Join(j.Command, " "))
	}
	return exitOK
}
