package firewall

import (
	"fmt"
	"net"
	"net/netip"
	"regexp"

	"github.com/cuemby/netemu/pkg/types"
)

var hostnamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-_]*$`)

// Plan is the ordered command sequence that realizes one node's firewall config
type Plan struct {
	Node  string
	Steps []Step
}

// Commands renders every step
func (p Plan) Commands() []string {
	cmds := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		cmds[i] = s.Render()
	}
	return cmds
}

// Rules returns the filter rules of the plan
func (p Plan) Rules() []Rule {
	var rules []Rule
	for _, s := range p.Steps {
		if r, ok := s.(Rule); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

// Compile builds the plan of node. peers is the full node list of the
// topology and provides the /etc/hosts entries of the other nodes.
//
// Order: routes, subnet routes, flush, hosts, explicit ACCEPT, explicit DROP,
// subnet defaults. Explicit entries precede the defaults so they win under
// first-match evaluation.
func Compile(node *types.NodeFirewallConfig, peers []*types.NodeFirewallConfig) (Plan, error) {
	if err := validate(node); err != nil {
		return Plan{}, err
	}
	plan := Plan{Node: node.PrimaryIP()}

	for _, r := range node.Routes {
		plan.Steps = append(plan.Steps, Route{Target: r.Target, Gateway: r.Gateway})
	}

	for _, d := range node.DefaultNetworkConfigs {
		if d.DefaultGateway == "" || d.Network == nil {
			continue
		}
		network, netmask, err := splitSubnet(d.Network.Subnet)
		if err != nil {
			return Plan{}, err
		}
		plan.Steps = append(plan.Steps, SubnetRoute{Network: network, Netmask: netmask, Gateway: d.DefaultGateway})
	}

	for _, t := range Tables {
		plan.Steps = append(plan.Steps, Flush{Table: t})
	}

	plan.Steps = append(plan.Steps, HostsEntry{IP: node.PrimaryIP(), Hostname: node.Hostname, Overwrite: true})
	for _, h := range DefaultHostsEntries {
		plan.Steps = append(plan.Steps, h)
	}
	for _, peer := range peers {
		if peer == node || peer.PrimaryIP() == "" || peer.PrimaryIP() == node.PrimaryIP() {
			continue
		}
		plan.Steps = append(plan.Steps, HostsEntry{IP: peer.PrimaryIP(), Hostname: peer.Hostname})
	}

	plan.Steps = appendACL(plan.Steps, ChainOutput, node.OutputAccept, types.VerdictAccept)
	plan.Steps = appendACL(plan.Steps, ChainInput, node.InputAccept, types.VerdictAccept)
	plan.Steps = appendACL(plan.Steps, ChainForward, node.ForwardAccept, types.VerdictAccept)
	plan.Steps = appendACL(plan.Steps, ChainOutput, node.OutputDrop, types.VerdictDrop)
	plan.Steps = appendACL(plan.Steps, ChainInput, node.InputDrop, types.VerdictDrop)
	plan.Steps = appendACL(plan.Steps, ChainForward, node.ForwardDrop, types.VerdictDrop)

	for _, d := range node.DefaultNetworkConfigs {
		if d.Network == nil || d.Network.Subnet == "" {
			continue
		}
		defaults := []struct {
			chain   Chain
			verdict types.Verdict
		}{
			{ChainOutput, d.DefaultOutput},
			{ChainInput, d.DefaultInput},
			{ChainForward, d.DefaultForward},
		}
		for _, def := range defaults {
			if def.verdict == "" {
				continue
			}
			for _, t := range Tables {
				plan.Steps = append(plan.Steps, Rule{Table: t, Chain: def.chain, Match: d.Network.Subnet, Verdict: def.verdict})
			}
		}
	}

	return plan, nil
}

// appendACL adds one rule per distinct peer, in iptables and arptables
func appendACL(steps []Step, chain Chain, peers []string, verdict types.Verdict) []Step {
	seen := make(map[string]bool, len(peers))
	for _, ip := range peers {
		if seen[ip] {
			continue
		}
		seen[ip] = true
		for _, t := range Tables {
			steps = append(steps, Rule{Table: t, Chain: chain, Match: ip, Verdict: verdict})
		}
	}
	return steps
}

func splitSubnet(cidr string) (string, string, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", "", fmt.Errorf("invalid subnet %q: %w", cidr, err)
	}
	return ipnet.IP.String(), net.IP(ipnet.Mask).String(), nil
}

// validate rejects values that are not addresses before they reach a shell
func validate(node *types.NodeFirewallConfig) error {
	if node.PrimaryIP() == "" {
		return fmt.Errorf("node %q has no ip", node.Hostname)
	}
	if !hostnamePattern.MatchString(node.Hostname) {
		return fmt.Errorf("invalid hostname %q", node.Hostname)
	}

	var addrs []string
	addrs = append(addrs, node.IPs...)
	addrs = append(addrs, node.OutputAccept...)
	addrs = append(addrs, node.InputAccept...)
	addrs = append(addrs, node.ForwardAccept...)
	addrs = append(addrs, node.OutputDrop...)
	addrs = append(addrs, node.InputDrop...)
	addrs = append(addrs, node.ForwardDrop...)
	for _, r := range node.Routes {
		addrs = append(addrs, r.Target, r.Gateway)
	}
	for _, d := range node.DefaultNetworkConfigs {
		if d.DefaultGateway != "" {
			addrs = append(addrs, d.DefaultGateway)
		}
		if d.Network != nil && d.Network.Subnet != "" {
			addrs = append(addrs, d.Network.Subnet)
		}
		for _, v := range []types.Verdict{d.DefaultInput, d.DefaultOutput, d.DefaultForward} {
			if v != "" && v != types.VerdictAccept && v != types.VerdictDrop {
				return fmt.Errorf("invalid verdict %q on %s", v, node.PrimaryIP())
			}
		}
	}

	for _, a := range addrs {
		if _, err := netip.ParseAddr(a); err == nil {
			continue
		}
		if _, err := netip.ParsePrefix(a); err == nil {
			continue
		}
		return fmt.Errorf("invalid address %q on %s", a, node.PrimaryIP())
	}
	return nil
}
