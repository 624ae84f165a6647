package traffic

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/sidecar/sidecartest"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hostIP  = "10.0.0.1"
	otherIP = "10.0.0.2"
)

var (
	net2 = &types.ContainerNetwork{Name: "net_2", Subnet: "15.12.2.0/24"}
	net3 = &types.ContainerNetwork{Name: "net_3", Subnet: "15.12.3.0/24"}
)

func container(name, owner string, ips ...types.ContainerIP) *types.NodeContainerConfig {
	return &types.NodeContainerConfig{Name: name, IPs: ips, DockerGwBridgeIP: "172.31.0." + name, PhysicalHostIP: owner}
}

func on(ip string, n *types.ContainerNetwork) types.ContainerIP {
	return types.ContainerIP{IP: ip, Network: n}
}

func trafficNode(ip, gw, owner string, commands, jumphosts, targets []string) *types.NodeTrafficConfig {
	return &types.NodeTrafficConfig{
		IP:                 ip,
		Commands:           commands,
		JumpHosts:          jumphosts,
		TargetHosts:        targets,
		TrafficManagerPort: 50043,
		DockerGwBridgeIP:   gw,
		PhysicalHostIP:     owner,
	}
}

// level8 is a reduced level-8 emulation where .191 is a pure jump host
// joining net_2 and net_3
func level8() *types.Execution {
	jumps := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		jumps = append(jumps, fmt.Sprintf("15.12.3.%d", 100+i))
	}
	jumps = append(jumps[:23], "15.12.2.2", "15.12.3.5")

	return &types.Execution{
		EmulationName: "level-8",
		IPFirstOctet:  15,
		Config: &types.EmulationEnvConfig{
			Containers: &types.ContainersConfig{
				Networks: []*types.ContainerNetwork{net2, net3},
				Containers: []*types.NodeContainerConfig{
					container("254", hostIP, on("15.12.2.254", net2)),
					container("2", hostIP, on("15.12.2.2", net2)),
					container("191", hostIP, on("15.12.2.191", net2), on("15.12.3.191", net3)),
					container("5", otherIP, on("15.12.3.5", net3)),
					container("79", hostIP, on("15.12.2.79", net2)),
				},
			},
			Kafka: &types.KafkaConfig{
				Container: container("9", hostIP, on("15.12.2.9", net2)),
				KafkaPort: 9092,
			},
			Traffic: &types.TrafficConfig{
				NodeTrafficConfigs: []*types.NodeTrafficConfig{
					trafficNode("15.12.2.2", "172.31.0.2", hostIP, []string{"ping -c 1 {}"}, []string{"15.12.2.191"}, []string{"15.12.3.5"}),
					trafficNode("15.12.2.191", "172.31.0.191", hostIP, []string{}, jumps, []string{}),
					trafficNode("15.12.3.5", "172.31.0.5", otherIP, []string{"curl {}:80"}, []string{"15.12.3.191"}, []string{"15.12.2.2"}),
					trafficNode("15.12.2.79", "172.31.0.79", hostIP, []string{"ssh {}"}, nil, nil),
				},
				ClientPopulation: &types.ClientPopulationConfig{
					IP:                         "15.12.2.254",
					Networks:                   []*types.ContainerNetwork{net2},
					ClientManagerPort:          50044,
					Mu:                         4,
					Lambda:                     20,
					TimeStepLenSeconds:         30,
					ProducerTimeStepLenSeconds: 60,
					DockerGwBridgeIP:           "172.31.0.254",
					PhysicalHostIP:             hostIP,
				},
			},
		},
	}
}

func ips(nodes []*types.NodeTrafficConfig) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.IP)
	}
	return out
}

func TestPeers(t *testing.T) {
	cfg := level8().Config
	tests := []struct {
		ip   string
		want []string
	}{
		{ip: "15.12.2.2", want: []string{"15.12.2.191", "15.12.2.79", "15.12.3.5"}},
		{ip: "15.12.2.191", want: []string{"15.12.2.2", "15.12.3.5", "15.12.2.79"}},
		{ip: "15.12.3.5", want: []string{"15.12.2.191", "15.12.2.2"}},
		{ip: "15.12.2.79", want: []string{"15.12.2.2", "15.12.2.191"}},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, ips(Peers(cfg, cfg.Traffic.Node(tt.ip))))
		})
	}
}

func TestPeersWithoutRelay(t *testing.T) {
	cfg := level8().Config
	n := cfg.Traffic.Node("15.12.2.2")
	n.JumpHosts = nil
	assert.Equal(t, []string{"15.12.2.191", "15.12.2.79"}, ips(Peers(cfg, n)))
}

func TestPureJumpHostContributesNoCommands(t *testing.T) {
	cfg := level8().Config
	for _, n := range cfg.Traffic.NodeTrafficConfigs {
		for _, cmd := range GeneratorCommands(cfg, n) {
			assert.NotContains(t, cmd, "15.12.2.191", "node %s", n.IP)
		}
	}
	assert.Equal(t,
		[]string{"ping -c 1 15.12.2.2", "curl 15.12.3.5:80", "ssh 15.12.2.79"},
		GeneratorCommands(cfg, cfg.Traffic.Node("15.12.2.191")))
	assert.Equal(t,
		[]string{"ssh 15.12.2.79", "curl 15.12.3.5:80"},
		GeneratorCommands(cfg, cfg.Traffic.Node("15.12.2.2")))
}

func TestReachableFromClient(t *testing.T) {
	reachable := ReachableFromClient(level8().Config)

	assert.Len(t, reachable, 3)
	for _, ip := range []string{"15.12.2.2", "15.12.2.191", "15.12.2.79"} {
		assert.Contains(t, reachable, ip)
	}
	assert.NotContains(t, reachable, "15.12.2.254")
	assert.NotContains(t, reachable, "15.12.3.5")
}

func TestClientCommands(t *testing.T) {
	assert.Equal(t, []string{
		"ping -c 1 15.12.2.2",
		"ssh 15.12.2.79",
		"(timeout 5 nmap -sP --min-rate 100000 --max-retries 1 -T5 -n 15.12.2.0/24 > /dev/null 2>&1)",
	}, ClientCommands(level8().Config))
}

func TestScript(t *testing.T) {
	assert.Equal(t,
		"#!/bin/bash\nwhile [ 1 ]\ndo\n    sleep 2\n    ping -c 1 15.12.2.2\n    sleep 2\n    ssh 15.12.2.79\ndone\n",
		Script([]string{"ping -c 1 15.12.2.2", "ssh 15.12.2.79"}))
	assert.Equal(t, "#!/bin/bash\nwhile [ 1 ]\ndo\n    sleep 2\ndone\n", Script(nil))
}

type fixture struct {
	cluster *sidecartest.Cluster
	rec     *sshexec.Recorder
	ctrl    *Controller
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{cluster: sidecartest.NewCluster(t), rec: sshexec.NewRecorder()}
	// every sidecar already runs
	f.rec.Respond = func(host, cmd string) (sshexec.Result, error) {
		if strings.HasPrefix(cmd, "ps aux") {
			return sshexec.Result{Stdout: "root 1 manager\n"}, nil
		}
		return sshexec.Result{}, nil
	}
	f.ctrl = NewController(
		f.rec,
		services.NewLauncher(f.rec, 0),
		sidecar.NewConnector(f.cluster, 200*time.Millisecond),
		ownership.NewGuard(hostIP),
		ownership.FanOut{Concurrency: 4},
	)
	return f
}

func TestCreateInternalTrafficGeneratorScripts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.CreateInternalTrafficGeneratorScripts(context.Background(), level8()))

	script, ok := f.rec.File("172.31.0.2", ScriptPath)
	require.True(t, ok)
	assert.Equal(t, Script([]string{"ssh 15.12.2.79", "curl 15.12.3.5:80"}), string(script))
	assert.Equal(t, []string{"# write /traffic_generator.sh 777"}, f.rec.Commands("172.31.0.2"))

	_, ok = f.rec.File("172.31.0.191", ScriptPath)
	assert.True(t, ok)

	// owned by another host
	_, ok = f.rec.File("172.31.0.5", ScriptPath)
	assert.False(t, ok)
	assert.Empty(t, f.rec.Commands("172.31.0.5"))
}

func TestStartTrafficManagersOwnedOnly(t *testing.T) {
	f := newFixture(t)
	f.rec.Respond = func(host, cmd string) (sshexec.Result, error) {
		if strings.HasPrefix(cmd, "ps aux") || strings.HasPrefix(cmd, "pkill") {
			return sshexec.Result{}, &sshexec.CommandError{Host: host, Command: cmd, ExitCode: 1}
		}
		return sshexec.Result{}, nil
	}
	require.NoError(t, f.ctrl.StartTrafficManagers(context.Background(), level8()))

	for _, gw := range []string{"172.31.0.2", "172.31.0.191", "172.31.0.79"} {
		assert.Equal(t, []string{
			"ps aux | grep [t]raffic_manager",
			"pkill -f traffic_manager",
			"nohup traffic_manager --port 50043 > /dev/null 2>&1 &",
		}, f.rec.Commands(gw), gw)
	}
	assert.Empty(t, f.rec.Commands("172.31.0.5"))
}

func TestStartInternalTrafficGenerators(t *testing.T) {
	f := newFixture(t)
	fakes := map[string]*sidecartest.TrafficManager{}
	for _, gw := range []string{"172.31.0.2", "172.31.0.191", "172.31.0.79", "172.31.0.5"} {
		fakes[gw] = &sidecartest.TrafficManager{}
		f.cluster.Serve(t, gw+":50043", fakes[gw].Service())
	}

	require.NoError(t, f.ctrl.StartInternalTrafficGenerators(context.Background(), level8()))

	assert.Equal(t, []string{sidecar.MethodStart}, fakes["172.31.0.2"].Names())
	assert.Empty(t, fakes["172.31.0.5"].Names())
	assert.Zero(t, f.cluster.Dials("172.31.0.5:50043"))
	assert.Zero(t, f.cluster.Dials("15.12.2.2:50043"))
}

func TestStartClientPopulationStopsActiveClientsFirst(t *testing.T) {
	f := newFixture(t)
	fake := sidecartest.NewClientManager(types.ClientManagerStatus{ClientProcessActive: true, NumClients: 12})
	f.cluster.Serve(t, "172.31.0.254:50044", fake.Service())

	exec := level8()
	n := exec.Config.ClientPopulationNodes()[0]
	require.NoError(t, f.ctrl.StartClientPopulation(context.Background(), exec, n))

	assert.Equal(t, []string{sidecar.MethodStatus, sidecar.MethodStop, sidecar.MethodStart}, fake.Names())
	req := fake.LastStart()
	require.NotNil(t, req)
	assert.Equal(t, ClientCommands(exec.Config), req.Commands)
	assert.Equal(t, 20.0, req.Lambda)
	assert.Equal(t, 4.0, req.Mu)
	assert.Equal(t, 30, req.TimeStepLenSeconds)
	assert.True(t, fake.State().ClientProcessActive)
}

func TestStartClientPopulationIdle(t *testing.T) {
	f := newFixture(t)
	fake := sidecartest.NewClientManager(types.ClientManagerStatus{})
	f.cluster.Serve(t, "172.31.0.254:50044", fake.Service())

	exec := level8()
	require.NoError(t, f.ctrl.StartClientPopulation(context.Background(), exec, exec.Config.ClientPopulationNodes()[0]))
	assert.Equal(t, []string{sidecar.MethodStatus, sidecar.MethodStart}, fake.Names())
}

func TestClientProducerToggle(t *testing.T) {
	f := newFixture(t)
	fake := sidecartest.NewClientManager(types.ClientManagerStatus{})
	f.cluster.Serve(t, "172.31.0.254:50044", fake.Service())

	exec := level8()
	n := exec.Config.ClientPopulationNodes()[0]
	ctx := context.Background()

	require.NoError(t, f.ctrl.StartClientProducer(ctx, exec, n))
	require.NoError(t, f.ctrl.StartClientProducer(ctx, exec, n))
	assert.True(t, fake.State().ProducerActive)
	assert.Equal(t, 60, fake.State().ProducerTimeStepLen)

	require.NoError(t, f.ctrl.StopClientProducer(ctx, exec, n))
	require.NoError(t, f.ctrl.StopClientProducer(ctx, exec, n))
	assert.False(t, fake.State().ProducerActive)

	assert.Equal(t, []string{
		sidecar.MethodStatus, sidecar.MethodStartProducer,
		sidecar.MethodStatus,
		sidecar.MethodStatus, sidecar.MethodStopProducer,
		sidecar.MethodStatus,
	}, fake.Names())
}

func TestManagersInfoToleratesUnreachable(t *testing.T) {
	f := newFixture(t)
	for _, gw := range []string{"172.31.0.2", "172.31.0.191", "172.31.0.79"} {
		f.cluster.Serve(t, gw+":50043", sidecartest.StatusService(sidecar.TrafficManagerService, types.TrafficManagerStatus{Running: true}, nil))
	}

	info := f.ctrl.TrafficManagersInfo(context.Background(), level8())

	assert.Equal(t, []string{"15.12.2.2", "15.12.2.191", "15.12.3.5", "15.12.2.79"}, info.IPs)
	assert.Equal(t, []int{50043, 50043, 50043, 50043}, info.Ports)
	assert.Equal(t, []bool{true, true, false, true}, info.Running)
	assert.Equal(t, types.TrafficManagerStatus{}, info.Statuses[2])
	assert.Equal(t, "level-8", info.EmulationName)
}

func TestNumActiveClients(t *testing.T) {
	f := newFixture(t)
	exec := level8()

	// unreachable client manager
	assert.Equal(t, types.ClientManagerStatus{}, f.ctrl.NumActiveClients(context.Background(), exec))

	f.cluster.Serve(t, "172.31.0.254:50044", sidecartest.NewClientManager(types.ClientManagerStatus{NumClients: 7, ClientProcessActive: true}).Service())
	got := f.ctrl.NumActiveClients(context.Background(), exec)
	assert.Equal(t, 7, got.NumClients)
}
