package topology

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostIP = "10.0.0.1"

func node(ip, hostname, gw, owner string) *types.NodeFirewallConfig {
	return &types.NodeFirewallConfig{
		IPs:              []string{ip},
		Hostname:         hostname,
		DockerGwBridgeIP: gw,
		PhysicalHostIP:   owner,
		DefaultNetworkConfigs: []types.DefaultNetworkFirewallConfig{{
			DefaultInput:   types.VerdictAccept,
			DefaultOutput:  types.VerdictAccept,
			DefaultForward: types.VerdictDrop,
			Network:        &types.ContainerNetwork{Name: "net_2", Subnet: "15.12.2.0/24"},
		}},
	}
}

func level2Execution() *types.Execution {
	router := node("15.12.2.10", "router", "172.31.0.10", hostIP)
	router.ForwardAccept = []string{"15.12.2.2", "15.12.2.3", "15.12.2.21", "15.12.2.79", "15.12.2.191", "15.12.2.1", "15.12.2.254"}
	router.Routes = []types.Route{{Target: "15.12.3.0/24", Gateway: "15.12.2.1"}}

	client := node("15.12.2.2", "client", "172.31.0.2", hostIP)
	client.OutputAccept = []string{"15.12.2.10"}

	remote := node("15.12.2.3", "server", "172.31.0.3", "10.0.0.2")

	return &types.Execution{
		EmulationName: "level-2",
		IPFirstOctet:  15,
		Config: &types.EmulationEnvConfig{
			Topology: &types.TopologyConfig{NodeConfigs: []*types.NodeFirewallConfig{router, client, remote}},
		},
	}
}

func newController(rec *sshexec.Recorder) *Controller {
	return NewController(rec, ownership.NewGuard(hostIP), ownership.FanOut{Concurrency: 4})
}

func TestCreateTopologyOwnedNodesOnly(t *testing.T) {
	rec := sshexec.NewRecorder()
	require.NoError(t, newController(rec).CreateTopology(context.Background(), level2Execution()))

	assert.NotEmpty(t, rec.Commands("172.31.0.10"))
	assert.NotEmpty(t, rec.Commands("172.31.0.2"))
	assert.Empty(t, rec.Commands("172.31.0.3"))
}

func TestCreateTopologyRouterForwardChain(t *testing.T) {
	rec := sshexec.NewRecorder()
	require.NoError(t, newController(rec).CreateTopology(context.Background(), level2Execution()))

	cmds := rec.Commands("172.31.0.10")
	assert.Equal(t, "ip route add 15.12.3.0/24 gw 15.12.2.1", cmds[0])

	var accepts, drops []string
	for _, c := range rec.Match("172.31.0.10", "iptables -A FORWARD") {
		if strings.HasPrefix(c, "arptables") {
			continue
		}
		if strings.HasSuffix(c, "-j ACCEPT") {
			accepts = append(accepts, c)
		} else {
			drops = append(drops, c)
		}
	}
	assert.Len(t, accepts, 7)
	assert.Equal(t, []string{"iptables -A FORWARD -d 15.12.2.0/24 -j DROP"}, drops)
	assert.Len(t, rec.Match("172.31.0.10", "arptables -A FORWARD -d 15.12.2.2 -j ACCEPT"), 1)
}

func TestCreateTopologyHostsFullMesh(t *testing.T) {
	rec := sshexec.NewRecorder()
	require.NoError(t, newController(rec).CreateTopology(context.Background(), level2Execution()))

	hosts := rec.Match("172.31.0.2", "/etc/hosts")
	require.Len(t, hosts, 1+5+2)
	assert.Equal(t, "echo '15.12.2.2 client' > /etc/hosts", hosts[0])
	assert.Contains(t, hosts, "echo '15.12.2.10 router' >> /etc/hosts")
	assert.Contains(t, hosts, "echo '15.12.2.3 server' >> /etc/hosts")
}

func TestCreateTopologyRerunIsReset(t *testing.T) {
	rec := sshexec.NewRecorder()
	c := newController(rec)
	exec := level2Execution()
	require.NoError(t, c.CreateTopology(context.Background(), exec))
	first := rec.Commands("172.31.0.10")
	require.NoError(t, c.CreateTopology(context.Background(), exec))
	second := rec.Commands("172.31.0.10")[len(first):]

	assert.Equal(t, first, second)
	assert.Contains(t, second, "iptables -F")
}

func TestCreateTopologyAcceptsExistingRoute(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = func(host, cmd string) (sshexec.Result, error) {
		if strings.HasPrefix(cmd, "ip route add") {
			return sshexec.Result{ExitCode: 2}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 2, Stderr: "RTNETLINK answers: File exists"}
		}
		return sshexec.Result{}, nil
	}

	require.NoError(t, newController(rec).CreateTopology(context.Background(), level2Execution()))
	assert.NotEmpty(t, rec.Match("172.31.0.10", "iptables -A FORWARD"))
}

func TestCreateTopologyStopsNodeOnFailure(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.Respond = func(host, cmd string) (sshexec.Result, error) {
		if host == "172.31.0.10" && cmd == "arptables -F" {
			return sshexec.Result{ExitCode: 1}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 1, Stderr: "arptables: not found"}
		}
		return sshexec.Result{}, nil
	}

	err := newController(rec).CreateTopology(context.Background(), level2Execution())
	require.Error(t, err)
	assert.Equal(t, 1, sshexec.ExitCode(err))

	cmds := rec.Commands("172.31.0.10")
	assert.Equal(t, "arptables -F", cmds[len(cmds)-1])
	assert.Empty(t, rec.Match("172.31.0.10", "-j ACCEPT"))
	// the other owned node is unaffected
	assert.NotEmpty(t, rec.Match("172.31.0.2", "-j ACCEPT"))
}

func TestCreateTopologyDialFailure(t *testing.T) {
	rec := sshexec.NewRecorder()
	rec.DialErr = map[string]error{"172.31.0.2": errors.New("connection refused")}

	err := newController(rec).CreateTopology(context.Background(), level2Execution())
	require.Error(t, err)
	assert.NotEmpty(t, rec.Commands("172.31.0.10"))
}

func TestCreateTopologyNotOwnedIsNoop(t *testing.T) {
	rec := sshexec.NewRecorder()
	c := NewController(rec, ownership.NewGuard("10.9.9.9"), ownership.FanOut{})

	require.NoError(t, c.CreateTopology(context.Background(), level2Execution()))
	assert.Empty(t, rec.Hosts())
}

func TestCreateTopologyWithoutConfig(t *testing.T) {
	rec := sshexec.NewRecorder()
	require.NoError(t, newController(rec).CreateTopology(context.Background(), &types.Execution{Config: &types.EmulationEnvConfig{}}))
	assert.Empty(t, rec.Hosts())
}
