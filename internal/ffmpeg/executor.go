package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"mixloom/internal/logging"
)

// Invocation records one executed engine command for the audit trail.
type Invocation struct {
	Args        []string
	Description string
	Duration    time.Duration
	Err         error
}

// Observer receives every completed invocation, success or failure, in
// execution order.
type Observer interface {
	ObserveInvocation(inv Invocation)
}

// Runner executes engine commands. Stages depend on this interface so
// tests can substitute a fake and never touch the real engine.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Executor runs engine commands as subprocesses.
type Executor struct {
	Binary string
	// Timeout bounds a single invocation; zero disables the bound. A
	// timeout kills the subprocess and surfaces as an ordinary error.
	Timeout  time.Duration
	Logger   *slog.Logger
	Observer Observer
}

// Run blocks until the command exits. On nonzero exit or timeout it
// returns an error carrying the captured stderr tail; there is no retry.
// On success the caller inspects the filesystem for the declared output.
func (e *Executor) Run(ctx context.Context, cmd Command) error {
	if len(cmd.Args) == 0 {
		return errors.New("ffmpeg run: empty argument list")
	}
	binary := strings.TrimSpace(e.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	logger.Debug("engine invocation",
		logging.String("description", cmd.Description),
		logging.String("command", binary+" "+cmd.String()),
	)

	proc := exec.CommandContext(runCtx, binary, cmd.Args...) //nolint:gosec
	var stderr bytes.Buffer
	proc.Stderr = &stderr

	start := time.Now()
	err := proc.Run()
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case runCtx.Err() == context.DeadlineExceeded:
			err = fmt.Errorf("timed out after %s: %s", e.Timeout, cmd.Description)
		default:
			if tail := stderrTail(stderr.String()); tail != "" {
				err = fmt.Errorf("%w: %s", err, tail)
			}
		}
		logger.Error("engine invocation failed",
			logging.String("description", cmd.Description),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
	} else {
		logger.Debug("engine invocation succeeded",
			logging.String("description", cmd.Description),
			logging.Duration("elapsed", elapsed),
		)
	}

	if e.Observer != nil {
		e.Observer.ObserveInvocation(Invocation{
			Args:        append([]string{binary}, cmd.Args...),
			Description: cmd.Description,
			Duration:    elapsed,
			Err:         err,
		})
	}
	return err
}

// Version returns the engine's version token from `<binary> -version`, or
// "unknown" when it cannot be determined. Never fails the run.
func Version(ctx context.Context, binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	versionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(versionCtx, binary, "-version").Output()
	if err != nil {
		return "unknown"
	}
	line, _, _ := strings.Cut(string(output), "\n")
	fields := strings.Fields(strings.TrimPrefix(line, "ffmpeg version "))
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[0]
}

// stderrTail keeps error payloads bounded; the engine writes progress
// chatter to stderr ahead of the actual diagnostic.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	const maxTail = 2048
	if len(s) > maxTail {
		s = s[len(s)-maxTail:]
	}
	return s
}
