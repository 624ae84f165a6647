package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testConfig() *EmulationEnvConfig {
	net2 := &ContainerNetwork{Name: "net_2", Subnet: "15.12.2.0/24"}
	return &EmulationEnvConfig{
		Name: "level-2",
		Containers: &ContainersConfig{
			Containers: []*NodeContainerConfig{
				{Name: "router", IPs: []ContainerIP{{IP: "15.12.2.10", Network: net2}}, DockerGwBridgeIP: "172.31.0.10", PhysicalHostIP: "10.0.0.1"},
				{Name: "ids", IPs: []ContainerIP{{IP: "15.12.2.191", Network: net2}}, DockerGwBridgeIP: "172.31.0.191", PhysicalHostIP: "10.0.0.2"},
				{Name: "kafka", IPs: []ContainerIP{{IP: "15.12.2.60", Network: net2}}, DockerGwBridgeIP: "172.31.0.60", PhysicalHostIP: "10.0.0.1"},
			},
			Networks: []*ContainerNetwork{net2},
		},
		SnortIDSManager: &IDSManagerConfig{ManagerConfig: ManagerConfig{Port: 50048}, IPs: []string{"15.12.2.191", "15.12.9.9"}},
		Kafka:           &KafkaConfig{Container: &NodeContainerConfig{Name: "kafka", IPs: []ContainerIP{{IP: "15.12.2.60"}}, PhysicalHostIP: "10.0.0.1"}},
	}
}

func TestExecutionIDKey(t *testing.T) {
	assert.Equal(t, "level-2/15", ExecutionID{Emulation: "level-2", IPFirstOctet: 15}.Key())
	e := &Execution{EmulationName: "level-2", IPFirstOctet: 15, PhysicalServers: []string{"10.0.0.1"}}
	assert.Equal(t, "level-2/15", e.ID().Key())
	assert.True(t, e.HasPhysicalServer("10.0.0.1"))
	assert.False(t, e.HasPhysicalServer("10.0.0.2"))
}

func TestContainerNodes(t *testing.T) {
	cfg := testConfig()
	nodes := cfg.ContainerNodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, Node{IP: "15.12.2.10", DockerGwBridgeIP: "172.31.0.10", PhysicalHostIP: "10.0.0.1"}, nodes[0])

	n, ok := FindNode(nodes, "15.12.2.191")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2", n.OwnerIP())
}

func TestNodeAdminIP(t *testing.T) {
	assert.Equal(t, "172.31.0.10", Node{IP: "15.12.2.10", DockerGwBridgeIP: "172.31.0.10"}.AdminIP())
	assert.Equal(t, "10.0.0.1", Node{IP: "10.0.0.1"}.AdminIP())
}

func TestIDSNodesSkipUnknownIPs(t *testing.T) {
	nodes := testConfig().SnortIDSNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "15.12.2.191", nodes[0].IP)
	assert.Empty(t, testConfig().OSSECIDSNodes())
}

func TestSingleNodeServices(t *testing.T) {
	cfg := testConfig()
	assert.Len(t, cfg.KafkaNodes(), 1)
	assert.Equal(t, "15.12.2.60", cfg.KafkaIP())
	assert.Empty(t, cfg.ElkNodes())
	assert.Equal(t, "", cfg.ElkIP())

	var nilCfg *EmulationEnvConfig
	assert.Empty(t, nilCfg.ContainerNodes())
	assert.Empty(t, nilCfg.TrafficNodes())
}

func TestClusterConfigIsLeader(t *testing.T) {
	cfg := &ClusterConfig{Nodes: []ClusterNode{{IP: "10.0.0.1", Leader: true}, {IP: "10.0.0.2"}}}
	assert.True(t, cfg.IsLeader("10.0.0.1"))
	assert.False(t, cfg.IsLeader("10.0.0.2"))
	assert.False(t, cfg.IsLeader("10.0.0.3"))
}

func TestFirewallConfigYAML(t *testing.T) {
	doc := `
ips: ["15.12.2.10"]
hostname: router
forward_accept: ["15.12.2.2", "15.12.2.3"]
routes:
  - target: 15.12.3.0/24
    gateway: 15.12.2.1
default_network_firewall_configs:
  - default_forward: DROP
    network: {name: net_2, subnet: 15.12.2.0/24}
physical_host_ip: 10.0.0.1
`
	var node NodeFirewallConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
	assert.Equal(t, "15.12.2.10", node.PrimaryIP())
	assert.Equal(t, VerdictDrop, node.DefaultNetworkConfigs[0].DefaultForward)
	assert.Equal(t, Route{Target: "15.12.3.0/24", Gateway: "15.12.2.1"}, node.Routes[0])
	assert.Equal(t, "10.0.0.1", node.OwnerIP())
}

func TestIDSManagerConfigInline(t *testing.T) {
	var cfg IDSManagerConfig
	require.NoError(t, yaml.Unmarshal([]byte("port: 50048\nlog_dir: /var/log\nips: [15.12.2.191]\n"), &cfg))
	assert.Equal(t, 50048, cfg.Port)
	assert.Equal(t, []string{"15.12.2.191"}, cfg.IPs)
}
