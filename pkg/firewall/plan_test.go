package firewall

import (
	"strings"
	"testing"

	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routerNode() *types.NodeFirewallConfig {
	return &types.NodeFirewallConfig{
		IPs:           []string{"15.12.2.10"},
		Hostname:      "router",
		OutputAccept:  []string{"15.12.2.2", "15.12.2.3"},
		InputAccept:   []string{"15.12.2.2"},
		ForwardAccept: []string{"15.12.2.2", "15.12.2.3", "15.12.2.21", "15.12.2.79", "15.12.2.191", "15.12.2.1", "15.12.2.254"},
		InputDrop:     []string{"15.12.2.66"},
		Routes:        []types.Route{{Target: "15.12.3.0/24", Gateway: "15.12.2.1"}},
		DefaultNetworkConfigs: []types.DefaultNetworkFirewallConfig{
			{
				DefaultGateway: "15.12.2.1",
				DefaultInput:   types.VerdictAccept,
				DefaultOutput:  types.VerdictAccept,
				DefaultForward: types.VerdictDrop,
				Network:        &types.ContainerNetwork{Name: "net_2", Subnet: "15.12.2.0/24"},
			},
		},
		DockerGwBridgeIP: "172.31.0.10",
		PhysicalHostIP:   "10.0.0.1",
	}
}

func countRules(rules []Rule, table Table, chain Chain, match string, verdict types.Verdict) int {
	n := 0
	for _, r := range rules {
		if r.Table == table && r.Chain == chain && r.Match == match && r.Verdict == verdict {
			n++
		}
	}
	return n
}

func TestRuleRender(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want string
	}{
		{
			name: "output accept matches destination",
			step: Rule{Table: IPTables, Chain: ChainOutput, Match: "15.12.2.2", Verdict: types.VerdictAccept},
			want: "iptables -A OUTPUT -d 15.12.2.2 -j ACCEPT",
		},
		{
			name: "input drop matches source",
			step: Rule{Table: ARPTables, Chain: ChainInput, Match: "15.12.2.2", Verdict: types.VerdictDrop},
			want: "arptables -A INPUT -s 15.12.2.2 -j DROP",
		},
		{
			name: "forward matches destination",
			step: Rule{Table: IPTables, Chain: ChainForward, Match: "15.12.2.0/24", Verdict: types.VerdictDrop},
			want: "iptables -A FORWARD -d 15.12.2.0/24 -j DROP",
		},
		{
			name: "route",
			step: Route{Target: "15.12.3.0/24", Gateway: "15.12.2.1"},
			want: "ip route add 15.12.3.0/24 gw 15.12.2.1",
		},
		{
			name: "subnet route",
			step: SubnetRoute{Network: "15.12.2.0", Netmask: "255.255.255.0", Gateway: "15.12.2.1"},
			want: "route add -net 15.12.2.0 netmask 255.255.255.0 gw 15.12.2.1",
		},
		{
			name: "hosts append",
			step: HostsEntry{IP: "15.12.2.2", Hostname: "client"},
			want: "echo '15.12.2.2 client' >> /etc/hosts",
		},
		{
			name: "hosts overwrite",
			step: HostsEntry{IP: "15.12.2.10", Hostname: "router", Overwrite: true},
			want: "echo '15.12.2.10 router' > /etc/hosts",
		},
		{
			name: "flush",
			step: Flush{Table: ARPTables},
			want: "arptables -F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.Render())
		})
	}
}

func TestCompileRoutesFirst(t *testing.T) {
	plan, err := Compile(routerNode(), nil)
	require.NoError(t, err)

	cmds := plan.Commands()
	require.GreaterOrEqual(t, len(cmds), 4)
	assert.Equal(t, "ip route add 15.12.3.0/24 gw 15.12.2.1", cmds[0])
	assert.Equal(t, "route add -net 15.12.2.0 netmask 255.255.255.0 gw 15.12.2.1", cmds[1])
	assert.Equal(t, "iptables -F", cmds[2])
	assert.Equal(t, "arptables -F", cmds[3])
	assert.Equal(t, "15.12.2.10", plan.Node)
}

func TestCompileOneRulePerEntry(t *testing.T) {
	node := routerNode()
	// duplicates collapse to a single rule
	node.OutputAccept = append(node.OutputAccept, "15.12.2.2")

	plan, err := Compile(node, nil)
	require.NoError(t, err)
	rules := plan.Rules()

	checks := []struct {
		chain   Chain
		ips     []string
		verdict types.Verdict
	}{
		{ChainOutput, []string{"15.12.2.2", "15.12.2.3"}, types.VerdictAccept},
		{ChainInput, []string{"15.12.2.2"}, types.VerdictAccept},
		{ChainForward, node.ForwardAccept, types.VerdictAccept},
		{ChainInput, node.InputDrop, types.VerdictDrop},
	}
	for _, c := range checks {
		for _, ip := range c.ips {
			for _, table := range Tables {
				assert.Equal(t, 1, countRules(rules, table, c.chain, ip, c.verdict), "%s %s %s %s", table, c.chain, ip, c.verdict)
			}
		}
	}
}

func TestCompileForwardDefaultDrop(t *testing.T) {
	plan, err := Compile(routerNode(), nil)
	require.NoError(t, err)

	var forward []Rule
	for _, r := range plan.Rules() {
		if r.Table == IPTables && r.Chain == ChainForward {
			forward = append(forward, r)
		}
	}

	// seven explicit accepts, then the subnet default
	require.Len(t, forward, 8)
	accepted := make(map[string]bool)
	for _, r := range forward[:7] {
		assert.Equal(t, types.VerdictAccept, r.Verdict)
		accepted[r.Match] = true
	}
	assert.Len(t, accepted, 7)
	assert.Equal(t, Rule{Table: IPTables, Chain: ChainForward, Match: "15.12.2.0/24", Verdict: types.VerdictDrop}, forward[7])
	assert.Contains(t, plan.Commands(), "iptables -A FORWARD -d 15.12.2.0/24 -j DROP")
	assert.Contains(t, plan.Commands(), "arptables -A FORWARD -d 15.12.2.0/24 -j DROP")
}

func TestCompileExplicitBeforeDefaults(t *testing.T) {
	plan, err := Compile(routerNode(), nil)
	require.NoError(t, err)

	lastExplicit, firstDefault := -1, -1
	for i, s := range plan.Steps {
		r, ok := s.(Rule)
		if !ok {
			continue
		}
		if strings.Contains(r.Match, "/") {
			if firstDefault == -1 {
				firstDefault = i
			}
		} else {
			lastExplicit = i
		}
	}
	require.NotEqual(t, -1, firstDefault)
	assert.Less(t, lastExplicit, firstDefault)
}

func TestCompileHosts(t *testing.T) {
	node := routerNode()
	client := &types.NodeFirewallConfig{IPs: []string{"15.12.2.2"}, Hostname: "client"}
	plan, err := Compile(node, []*types.NodeFirewallConfig{node, client})
	require.NoError(t, err)

	var hosts []string
	for _, s := range plan.Steps {
		if h, ok := s.(HostsEntry); ok {
			hosts = append(hosts, h.Render())
		}
	}
	require.Len(t, hosts, 1+len(DefaultHostsEntries)+1)
	assert.Equal(t, "echo '15.12.2.10 router' > /etc/hosts", hosts[0])
	assert.Equal(t, "echo '::1 localhost ip6-localhost ip6-loopback' >> /etc/hosts", hosts[1])
	assert.Equal(t, "echo '15.12.2.2 client' >> /etc/hosts", hosts[len(hosts)-1])
}

func TestCompileDeterministic(t *testing.T) {
	a, err := Compile(routerNode(), nil)
	require.NoError(t, err)
	b, err := Compile(routerNode(), nil)
	require.NoError(t, err)
	assert.Equal(t, a.Commands(), b.Commands())
}

func TestCompileRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n *types.NodeFirewallConfig)
	}{
		{"no ip", func(n *types.NodeFirewallConfig) { n.IPs = nil }},
		{"shell in hostname", func(n *types.NodeFirewallConfig) { n.Hostname = "x'; rm -rf /" }},
		{"bad peer", func(n *types.NodeFirewallConfig) { n.OutputAccept = []string{"15.12.2.2; reboot"} }},
		{"bad gateway", func(n *types.NodeFirewallConfig) { n.Routes = []types.Route{{Target: "15.12.3.0/24", Gateway: "gw"}} }},
		{"bad verdict", func(n *types.NodeFirewallConfig) { n.DefaultNetworkConfigs[0].DefaultForward = "REJECT" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := routerNode()
			tt.mutate(node)
			_, err := Compile(node, nil)
			assert.Error(t, err)
		})
	}
}
