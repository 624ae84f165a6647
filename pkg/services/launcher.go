package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/rs/zerolog"
)

// Process describes a sidecar manager process
type Process struct {
	// Binary is the executable name, also used to find the process
	Binary     string
	Port       int
	LogDir     string
	LogFile    string
	MaxWorkers int
}

// probe returns the ps pipeline finding the process without matching itself
func (p Process) probe() string {
	if p.Binary == "" {
		return ""
	}
	return fmt.Sprintf("ps aux | grep [%s]%s", p.Binary[:1], p.Binary[1:])
}

func (p Process) kill() string {
	return fmt.Sprintf("pkill -f %s", p.Binary)
}

// launch returns the detached start command
func (p Process) launch() string {
	args := []string{p.Binary, fmt.Sprintf("--port %d", p.Port)}
	if p.LogDir != "" {
		args = append(args, "--logdir "+p.LogDir)
	}
	if p.LogFile != "" {
		args = append(args, "--logfile "+p.LogFile)
	}
	if p.MaxWorkers > 0 {
		args = append(args, fmt.Sprintf("--maxworkers %d", p.MaxWorkers))
	}
	return fmt.Sprintf("nohup %s > /dev/null 2>&1 &", strings.Join(args, " "))
}

// LogPath returns the log file of the process
func (p Process) LogPath() string {
	if p.LogFile == "" {
		return ""
	}
	if p.LogDir == "" {
		return p.LogFile
	}
	return strings.TrimSuffix(p.LogDir, "/") + "/" + p.LogFile
}

// Launcher starts and stops sidecar processes on nodes
type Launcher struct {
	dialer sshexec.Dialer
	settle time.Duration
	logger zerolog.Logger
}

// NewLauncher creates a launcher that waits settle after each start
func NewLauncher(dialer sshexec.Dialer, settle time.Duration) *Launcher {
	return &Launcher{dialer: dialer, settle: settle, logger: log.WithComponent("services")}
}

// Running reports whether p runs on host
func (l *Launcher) Running(ctx context.Context, host string, p Process) (bool, error) {
	session, err := l.dialer.Dial(ctx, host)
	if err != nil {
		return false, fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer session.Close()
	return running(ctx, session, p)
}

func running(ctx context.Context, session sshexec.Session, p Process) (bool, error) {
	res, err := session.Run(ctx, p.probe())
	if err != nil {
		// grep exits 1 when nothing matches
		if sshexec.ExitCode(err) == 1 {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// Ensure starts p on host unless it already runs. It returns true when a
// new instance was launched.
func (l *Launcher) Ensure(ctx context.Context, host string, p Process) (bool, error) {
	session, err := l.dialer.Dial(ctx, host)
	if err != nil {
		return false, fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer session.Close()

	up, err := running(ctx, session, p)
	if err != nil {
		return false, err
	}
	if up {
		return false, nil
	}

	if err := stop(ctx, session, p); err != nil {
		return false, err
	}
	if _, err := session.Run(ctx, p.launch()); err != nil {
		return false, fmt.Errorf("failed to launch %s on %s: %w", p.Binary, host, err)
	}
	l.logger.Info().Str("host", host).Str("process", p.Binary).Int("port", p.Port).Msg("Sidecar started")

	if err := sleep(ctx, l.settle); err != nil {
		return true, err
	}
	return true, nil
}

// Stop kills every instance of p on host
func (l *Launcher) Stop(ctx context.Context, host string, p Process) error {
	session, err := l.dialer.Dial(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer session.Close()

	if err := stop(ctx, session, p); err != nil {
		return err
	}
	l.logger.Info().Str("host", host).Str("process", p.Binary).Msg("Sidecar stopped")
	return nil
}

func stop(ctx context.Context, session sshexec.Session, p Process) error {
	if _, err := session.Run(ctx, p.kill()); err != nil && sshexec.ExitCode(err) != 1 {
		return fmt.Errorf("failed to stop %s: %w", p.Binary, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
