package health

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// ExecChecker runs a local command; exit status 0 means up
type ExecChecker struct {
	// Command is the argv, e.g. ["pgrep", "-f", "docker_stats_manager"]
	Command []string
	Timeout time.Duration
}

func NewExecChecker(command ...string) *ExecChecker {
	return &ExecChecker{Command: command, Timeout: 10 * time.Second}
}

// NewProcessChecker reports up while a process whose command line matches
// pattern runs on this host
func NewProcessChecker(pattern string) *ExecChecker {
	return NewExecChecker("pgrep", "-f", pattern)
}

func (e *ExecChecker) Check(ctx context.Context) Result {
	start := time.Now()
	if len(e.Command) == 0 {
		return fail(start, "no command")
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)
	cmd.Stderr = &stderr
	line := strings.Join(e.Command, " ")
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fail(start, "%s: %v: %s", line, err, msg)
		}
		return fail(start, "%s: %v", line, err)
	}
	return pass(start, "%s: ok", line)
}

func (e *ExecChecker) Type() CheckType {
	return CheckTypeExec
}
