package sshexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandError(t *testing.T) {
	err := error(&CommandError{Host: "15.12.2.10", Command: "iptables -F", ExitCode: 3, Stderr: "permission denied"})

	assert.Equal(t, 3, ExitCode(err))
	assert.Contains(t, err.Error(), "iptables -F")
	assert.Contains(t, err.Error(), "15.12.2.10")
	assert.Equal(t, -1, ExitCode(errors.New("other")))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Respond = func(host, cmd string) (Result, error) {
		if cmd == "false" {
			return Result{ExitCode: 1}, &CommandError{Host: host, Command: cmd, ExitCode: 1}
		}
		return Result{Stdout: "ok"}, nil
	}

	s, err := r.Dial(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	res, err := s.Run(context.Background(), "true")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)

	_, err = s.Run(context.Background(), "false")
	assert.Equal(t, 1, ExitCode(err))

	require.NoError(t, s.WriteFile(context.Background(), "/tmp/x.sh", []byte("echo"), 0777))
	data, ok := r.File("10.0.0.1", "/tmp/x.sh")
	assert.True(t, ok)
	assert.Equal(t, "echo", string(data))

	assert.Equal(t, []string{"true", "false", "# write /tmp/x.sh 777"}, r.Commands("10.0.0.1"))
	assert.Equal(t, []string{"true"}, r.Match("10.0.0.1", "tru"))
}

func TestRecorderDialError(t *testing.T) {
	r := NewRecorder()
	r.DialErr = map[string]error{"10.0.0.2": errors.New("unreachable")}

	_, err := r.Dial(context.Background(), "10.0.0.2")
	assert.Error(t, err)
}

func TestLocalDialer(t *testing.T) {
	s, err := LocalDialer{CommandTimeout: 5 * time.Second}.Dial(context.Background(), LocalHost)
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Run(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)

	_, err = s.Run(context.Background(), "exit 3")
	assert.Equal(t, 3, ExitCode(err))

	path := filepath.Join(t.TempDir(), "scripts", "run.sh")
	require.NoError(t, s.WriteFile(context.Background(), path, []byte("#!/bin/bash\n"), 0o755))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestLocalDialerTimeout(t *testing.T) {
	s, err := LocalDialer{CommandTimeout: 50 * time.Millisecond}.Dial(context.Background(), LocalHost)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "sleep 2")
	assert.ErrorIs(t, err, ErrTimeout)
}
