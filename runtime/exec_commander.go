package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// ExecCommander runs device commands locally via os/exec. This is the
// default transport when the watchdog runs on the device itself.
type ExecCommander struct {
	// Timeout bounds each command individually.
	Timeout time.Duration
	log     logr.Logger
}

func NewExecCommander(timeout time.Duration, log logr.Logger) *ExecCommander {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExecCommander{Timeout: timeout, log: log}
}

// Run executes one command and returns its captured stdout. On failure the
// captured stdout (possibly partial) is still returned alongside the error.
func (e *ExecCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	start := time.Now()
	stdout, err := cmd.Output()
	duration := time.Since(start)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			return stdout, fmt.Errorf("%s %v failed after %s: %w (stderr: %s)", name, args, duration, err, stderr)
		}
		return stdout, fmt.Errorf("%s %v failed after %s: %w", name, args, duration, err)
	}
	e.log.V(1).Info("command succeeded", "name", name, "args", args, "duration", duration)
	return stdout, nil
}
