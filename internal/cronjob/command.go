package cronjob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// outputTailLines is how many trailing output lines a failure report carries.
const outputTailLines = 20

const waitDelay = 5 * time.Second

// Command runs argv (in dir, when set) with an optional timeout.
// A failing command's error carries the tail of its combined output.
func Command(argv []string, dir string, timeout time.Duration) Job {
	return func(ctx context.Context) error {
		if len(argv) == 0 {
			return errors.New("empty command")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = dir
		// Children that inherit the output pipe must not hold Wait hostage.
		cmd.WaitDelay = waitDelay
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		err := cmd.Run()
		if err == nil {
			return nil
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		if tail := tailLines(out.String(), outputTailLines); tail != "" {
			return fmt.Errorf("%w\nOutput:\n%s", err, tail)
		}
		return err
	}
}

func tailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
