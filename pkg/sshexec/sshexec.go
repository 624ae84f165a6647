package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/cuemby/netemu/pkg/metrics"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ErrTimeout is returned when a remote command exceeds its deadline
var ErrTimeout = errors.New("remote command timed out")

// Result is the captured outcome of one remote command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports a remote command that exited non-zero
type CommandError struct {
	Host     string
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q on %s exited with status %d: %s", e.Command, e.Host, e.ExitCode, e.Stderr)
}

// ExitCode returns the exit status carried by err, or -1
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// Session runs commands on one remote node
type Session interface {
	// Run executes cmd and returns a *CommandError when it exits non-zero
	Run(ctx context.Context, cmd string) (Result, error)
	// WriteFile creates or truncates a remote file
	WriteFile(ctx context.Context, name string, data []byte, mode os.FileMode) error
	Close() error
}

// Dialer opens sessions to nodes by address
type Dialer interface {
	Dial(ctx context.Context, host string) (Session, error)
}

// Config holds the credentials and timeouts of admin sessions
type Config struct {
	User           string
	Password       string
	Port           int
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

// SSHDialer dials real SSH servers
type SSHDialer struct {
	cfg Config
}

// NewDialer creates an SSH dialer
func NewDialer(cfg Config) *SSHDialer {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	return &SSHDialer{cfg: cfg}
}

// Dial opens an admin session to host
func (d *SSHDialer) Dial(ctx context.Context, host string) (Session, error) {
	clientCfg := &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(d.cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // emulated containers regenerate host keys on every run
		Timeout:         d.cfg.DialTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(d.cfg.Port))
	dialer := &net.Dialer{Timeout: d.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}

	return &sshSession{
		host:    host,
		client:  ssh.NewClient(c, chans, reqs),
		timeout: d.cfg.CommandTimeout,
	}, nil
}

type sshSession struct {
	host    string
	client  *ssh.Client
	timeout time.Duration
}

func (s *sshSession) Run(ctx context.Context, cmd string) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		metrics.RemoteCommandsTotal.WithLabelValues("ssh", "error").Inc()
		return Result{}, fmt.Errorf("failed to open session on %s: %w", s.host, err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		metrics.RemoteCommandsTotal.WithLabelValues("ssh", "timeout").Inc()
		return Result{}, fmt.Errorf("%q on %s: %w", cmd, s.host, ErrTimeout)
	case err = <-done:
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			metrics.RemoteCommandsTotal.WithLabelValues("ssh", "error").Inc()
			return res, fmt.Errorf("%q on %s: %w", cmd, s.host, err)
		}
		res.ExitCode = exitErr.ExitStatus()
		metrics.RemoteCommandsTotal.WithLabelValues("ssh", "failed").Inc()
		return res, &CommandError{Host: s.host, Command: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	metrics.RemoteCommandsTotal.WithLabelValues("ssh", "ok").Inc()
	return res, nil
}

func (s *sshSession) WriteFile(ctx context.Context, name string, data []byte, mode os.FileMode) error {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("failed to open sftp on %s: %w", s.host, err)
	}
	defer client.Close()

	if err := client.MkdirAll(path.Dir(name)); err != nil {
		return fmt.Errorf("failed to create %s on %s: %w", path.Dir(name), s.host, err)
	}
	f, err := client.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s on %s: %w", name, s.host, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s on %s: %w", name, s.host, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return client.Chmod(name, mode)
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
