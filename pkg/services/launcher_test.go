package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notRunning(host, cmd string) (sshexec.Result, error) {
	if strings.HasPrefix(cmd, "ps aux") || strings.HasPrefix(cmd, "pkill") {
		return sshexec.Result{}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 1}
	}
	return sshexec.Result{}, nil
}

func alreadyRunning(host, cmd string) (sshexec.Result, error) {
	if strings.HasPrefix(cmd, "ps aux") {
		return sshexec.Result{Stdout: "root 12 0.0 traffic_manager --port 50043\n"}, nil
	}
	return sshexec.Result{}, nil
}

func TestProcessCommands(t *testing.T) {
	p := TrafficManager(&types.NodeTrafficConfig{
		TrafficManagerPort:       50043,
		TrafficManagerLogDir:     "/",
		TrafficManagerLogFile:    "traffic_manager.log",
		TrafficManagerMaxWorkers: 10,
	})

	assert.Equal(t, "ps aux | grep [t]raffic_manager", p.probe())
	assert.Equal(t, "pkill -f traffic_manager", p.kill())
	assert.Equal(t, "nohup traffic_manager --port 50043 --logdir / --logfile traffic_manager.log --maxworkers 10 > /dev/null 2>&1 &", p.launch())
	assert.Equal(t, "/traffic_manager.log", p.LogPath())

	bare := Process{Binary: KafkaManagerBinary, Port: 50051}
	assert.Equal(t, "nohup kafka_manager --port 50051 > /dev/null 2>&1 &", bare.launch())
	assert.Empty(t, bare.LogPath())
}

func TestEnsureLaunchesWhenStopped(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = notRunning
	l := NewLauncher(rec, 0)

	started, err := l.Ensure(context.Background(), "172.31.0.2", Process{Binary: TrafficManagerBinary, Port: 50043})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, []string{
		"ps aux | grep [t]raffic_manager",
		"pkill -f traffic_manager",
		"nohup traffic_manager --port 50043 > /dev/null 2>&1 &",
	}, rec.Commands("172.31.0.2"))
}

func TestEnsureKeepsRunningProcess(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = alreadyRunning
	l := NewLauncher(rec, time.Hour)

	started, err := l.Ensure(context.Background(), "172.31.0.2", Process{Binary: TrafficManagerBinary, Port: 50043})
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, []string{"ps aux | grep [t]raffic_manager"}, rec.Commands("172.31.0.2"))
}

func TestEnsureSettleRespectsContext(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = notRunning
	l := NewLauncher(rec, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started, err := l.Ensure(ctx, "172.31.0.2", Process{Binary: HostManagerBinary, Port: 50049})
	assert.True(t, started)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunning(t *testing.T) {
	tests := []struct {
		name    string
		respond func(host, cmd string) (sshexec.Result, error)
		want    bool
		wantErr bool
	}{
		{name: "running", respond: alreadyRunning, want: true},
		{name: "stopped", respond: notRunning, want: false},
		{
			name: "probe fails",
			respond: func(host, cmd string) (sshexec.Result, error) {
				return sshexec.Result{}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 2}
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sshexec.NewRecorder()
			rec.Respond = tt.respond
			got, err := NewLauncher(rec, 0).Running(context.Background(), "h", Process{Binary: TrafficManagerBinary})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStop(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = notRunning
	l := NewLauncher(rec, 0)

	require.NoError(t, l.Stop(context.Background(), "172.31.0.2", Process{Binary: ClientManagerBinary}))
	assert.Equal(t, []string{"pkill -f client_manager"}, rec.Commands("172.31.0.2"))
}

func TestLauncherDialFailure(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.DialErr = map[string]error{"172.31.0.2": errors.New("no route to host")}
	l := NewLauncher(rec, 0)

	_, err := l.Ensure(context.Background(), "172.31.0.2", Process{Binary: TrafficManagerBinary})
	assert.ErrorContains(t, err, "no route to host")
	assert.Error(t, l.Stop(context.Background(), "172.31.0.2", Process{Binary: TrafficManagerBinary}))
}
