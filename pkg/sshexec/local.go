package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cuemby/netemu/pkg/metrics"
)

// LocalHost is the host name recorded for commands run on this machine
const LocalHost = "localhost"

// LocalDialer runs commands on this physical host through /bin/sh. It
// serves host-level sidecars and probes with the same Session interface
// used for containers.
type LocalDialer struct {
	CommandTimeout time.Duration
}

func (d LocalDialer) Dial(ctx context.Context, host string) (Session, error) {
	return &localSession{timeout: d.CommandTimeout}, nil
}

type localSession struct {
	timeout time.Duration
}

func (s *localSession) Run(ctx context.Context, cmd string) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, "/bin/sh", "-c", cmd)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() == context.DeadlineExceeded {
		metrics.RemoteCommandsTotal.WithLabelValues("local", "timeout").Inc()
		return res, fmt.Errorf("%q: %w", cmd, ErrTimeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			metrics.RemoteCommandsTotal.WithLabelValues("local", "error").Inc()
			return res, fmt.Errorf("%q: %w", cmd, err)
		}
		res.ExitCode = exitErr.ExitCode()
		metrics.RemoteCommandsTotal.WithLabelValues("local", "failed").Inc()
		return res, &CommandError{Host: LocalHost, Command: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	metrics.RemoteCommandsTotal.WithLabelValues("local", "ok").Inc()
	return res, nil
}

func (s *localSession) WriteFile(ctx context.Context, name string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(name, data, mode); err != nil {
		return err
	}
	return os.Chmod(name, mode)
}

func (s *localSession) Close() error { return nil }
