package provision

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContainers struct {
	mu      sync.Mutex
	updates []string
	pids    map[string]int
}

func (f *fakeContainers) UpdateResources(ctx context.Context, name string, cpus float64, memoryMB int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, name)
	return nil
}

func (f *fakeContainers) ContainerPID(ctx context.Context, name string) (int, error) {
	pid, ok := f.pids[name]
	if !ok {
		return 0, errors.New("no such container")
	}
	return pid, nil
}

type shaped struct {
	pid  int
	cfgs []types.NetemConfig
}

type fakeShaper struct {
	calls []shaped
}

func (f *fakeShaper) Shape(ctx context.Context, pid int, cfgs []types.NetemConfig) error {
	f.calls = append(f.calls, shaped{pid: pid, cfgs: cfgs})
	return nil
}

var client = types.Node{IP: "15.12.2.2", DockerGwBridgeIP: "172.31.0.2", PhysicalHostIP: "10.0.0.1"}

func provisionExecution() *types.Execution {
	return &types.Execution{
		EmulationName: "level-2",
		IPFirstOctet:  15,
		Config: &types.EmulationEnvConfig{
			Users: &types.UsersConfig{Nodes: []*types.NodeUsersConfig{{
				IP:    "15.12.2.2",
				Users: []types.User{{Username: "admin", Password: "admin31151x", Root: true}, {Username: "guest", Password: "it's"}},
			}}},
			Vulnerabilities: &types.VulnerabilitiesConfig{Nodes: []*types.NodeVulnerabilityConfig{
				{IP: "15.12.2.2", Name: "ftp", Type: "weak-pw", Commands: []string{"service vsftpd start"}},
				{IP: "15.12.2.3", Name: "ssh", Commands: []string{"service ssh start"}},
				{IP: "15.12.2.2", Name: "telnet", Commands: []string{"service xinetd start"}},
			}},
			Flags: &types.FlagsConfig{Nodes: []*types.NodeFlagsConfig{{
				IP: "15.12.2.2",
				Flags: []types.Flag{
					{Name: "flag1", Path: "flag1.txt", Dir: "/tmp"},
					{Name: "flag2", Path: "/root/flag2.txt", RequiresRoot: true},
				},
			}}},
			ResourceConstraints: &types.ResourceConstraintsConfig{Nodes: []*types.NodeResourcesConfig{{
				ContainerName: "csle-client-15",
				IP:            "15.12.2.2",
				CPUs:          1,
				MemoryMB:      512,
				Interfaces:    []types.NetemConfig{{Interface: "eth0", PacketDelayMs: 2}},
			}}},
		},
	}
}

func newController(rec, local *sshexec.Recorder, containers Containers, shaper *fakeShaper) *Controller {
	return NewController(rec, local, containers, shaper, ownership.NewGuard("10.0.0.1"), ownership.FanOut{})
}

func TestCreateUsers(t *testing.T) {
	rec := sshexec.NewRecorder()
	c := newController(rec, sshexec.NewRecorder(), &fakeContainers{}, &fakeShaper{})

	require.NoError(t, c.CreateUsers(context.Background(), provisionExecution(), client))

	cmds := rec.Commands("172.31.0.2")
	require.Len(t, cmds, 4)
	assert.Equal(t, "sudo deluser --remove-home admin > /dev/null 2>&1 || true", cmds[0])
	assert.Equal(t, `sudo useradd -rm -d /home/admin -s /bin/bash -g root -G sudo -p "$(openssl passwd -1 'admin31151x')" admin`, cmds[1])
	assert.Equal(t, `sudo useradd -rm -d /home/guest -s /bin/bash -p "$(openssl passwd -1 'it'\''s')" guest`, cmds[3])
}

func TestCreateVulnerabilitiesInOrder(t *testing.T) {
	rec := sshexec.NewRecorder()
	c := newController(rec, sshexec.NewRecorder(), &fakeContainers{}, &fakeShaper{})

	require.NoError(t, c.CreateVulnerabilities(context.Background(), provisionExecution(), client))
	assert.Equal(t, []string{"service vsftpd start", "service xinetd start"}, rec.Commands("172.31.0.2"))
}

func TestCreateVulnerabilitiesStopsOnFailure(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = func(host, cmd string) (sshexec.Result, error) {
		if strings.Contains(cmd, "vsftpd") {
			return sshexec.Result{}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 127}
		}
		return sshexec.Result{}, nil
	}
	c := newController(rec, sshexec.NewRecorder(), &fakeContainers{}, &fakeShaper{})

	err := c.CreateVulnerabilities(context.Background(), provisionExecution(), client)
	require.Error(t, err)
	assert.Equal(t, 127, sshexec.ExitCode(err))
	assert.Len(t, rec.Commands("172.31.0.2"), 1)
}

func TestCreateFlags(t *testing.T) {
	rec := sshexec.NewRecorder()
	c := newController(rec, sshexec.NewRecorder(), &fakeContainers{}, &fakeShaper{})

	require.NoError(t, c.CreateFlags(context.Background(), provisionExecution(), client))

	data, ok := rec.File("172.31.0.2", "/tmp/flag1.txt")
	require.True(t, ok)
	assert.Equal(t, "flag1\n", string(data))
	_, ok = rec.File("172.31.0.2", "/root/flag2.txt")
	assert.True(t, ok)
	assert.Equal(t, []string{"sudo chown root:root /root/flag2.txt && sudo chmod 600 /root/flag2.txt"}, rec.Match("172.31.0.2", "chown"))
}

func TestApplyResourceConstraints(t *testing.T) {
	containers := &fakeContainers{pids: map[string]int{"csle-client-15": 4242}}
	shaper := &fakeShaper{}
	c := newController(sshexec.NewRecorder(), sshexec.NewRecorder(), containers, shaper)

	require.NoError(t, c.ApplyResourceConstraints(context.Background(), provisionExecution(), client))

	assert.Equal(t, []string{"csle-client-15"}, containers.updates)
	require.Len(t, shaper.calls, 1)
	assert.Equal(t, 4242, shaper.calls[0].pid)
	assert.Equal(t, "eth0", shaper.calls[0].cfgs[0].Interface)
}

func TestApplyResourceConstraintsUnknownContainer(t *testing.T) {
	c := newController(sshexec.NewRecorder(), sshexec.NewRecorder(), &fakeContainers{}, &fakeShaper{})
	assert.Error(t, c.ApplyResourceConstraints(context.Background(), provisionExecution(), client))
}

func TestMissingConfig(t *testing.T) {
	rec := sshexec.NewRecorder()
	c := newController(rec, sshexec.NewRecorder(), &fakeContainers{}, &fakeShaper{})
	exec := &types.Execution{Config: &types.EmulationEnvConfig{}}

	assert.ErrorIs(t, c.CreateUsers(context.Background(), exec, client), ErrNotProvisioned)
	assert.ErrorIs(t, c.CreateFlags(context.Background(), exec, client), ErrNotProvisioned)
	assert.Empty(t, rec.Hosts())
}

func TestPing(t *testing.T) {
	local := sshexec.NewRecorder()
	local.Respond = func(host, cmd string) (sshexec.Result, error) {
		if strings.HasSuffix(cmd, "15.12.2.3") {
			return sshexec.Result{}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 1}
		}
		return sshexec.Result{}, nil
	}
	c := newController(sshexec.NewRecorder(), local, &fakeContainers{}, &fakeShaper{})

	require.NoError(t, c.Ping(context.Background(), client))
	assert.Error(t, c.Ping(context.Background(), types.Node{IP: "15.12.2.3"}))
	assert.Equal(t, []string{"ping -c 1 -W 2 15.12.2.2", "ping -c 1 -W 2 15.12.2.3"}, local.Commands(sshexec.LocalHost))
}
