package traffic

import (
	"net/netip"
	"strings"

	"github.com/cuemby/netemu/pkg/types"
)

// Placeholder is replaced by the target IP in command templates
const Placeholder = "{}"

// DefaultSubnetCommands are issued by the client population against every
// network it is attached to
var DefaultSubnetCommands = []string{
	"(timeout 5 nmap -sP --min-rate 100000 --max-retries 1 -T5 -n " + Placeholder + " > /dev/null 2>&1)",
}

// Instantiate fills every command template with ip
func Instantiate(templates []string, ip string) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, strings.ReplaceAll(t, Placeholder, ip))
	}
	return out
}

// networksOf returns the names of the networks ip is attached to
func networksOf(cfg *types.EmulationEnvConfig, ip string) map[string]bool {
	nets := make(map[string]bool)
	if cfg.Containers == nil {
		return nets
	}
	if c := cfg.Containers.Container(ip); c != nil {
		for _, n := range c.Networks() {
			nets[n] = true
		}
	}
	return nets
}

func sameSubnet(a, b string) bool {
	pa, err := netip.ParseAddr(a)
	if err != nil {
		return false
	}
	pb, err := netip.ParseAddr(b)
	if err != nil {
		return false
	}
	prefix, err := pa.Prefix(24)
	if err != nil {
		return false
	}
	return prefix.Contains(pb)
}

// sharesNetwork reports whether a and b can reach each other directly.
// Containers are compared by docker network; addresses without a container
// fall back to their /24.
func sharesNetwork(cfg *types.EmulationEnvConfig, a, b string) bool {
	na, nb := networksOf(cfg, a), networksOf(cfg, b)
	if len(na) == 0 || len(nb) == 0 {
		return sameSubnet(a, b)
	}
	for n := range na {
		if nb[n] {
			return true
		}
	}
	return false
}

// ReachableFromClient returns the containers sharing a network with the
// client population, paired with the address they are reached on
func ReachableFromClient(cfg *types.EmulationEnvConfig) map[string]*types.NodeContainerConfig {
	reachable := make(map[string]*types.NodeContainerConfig)
	if cfg == nil || cfg.Traffic == nil || cfg.Traffic.ClientPopulation == nil || cfg.Containers == nil {
		return reachable
	}
	pop := cfg.Traffic.ClientPopulation
	clientNets := make(map[string]bool, len(pop.Networks))
	for _, n := range pop.Networks {
		clientNets[n.Name] = true
	}
	for _, c := range cfg.Containers.Containers {
		if c.HasIP(pop.IP) {
			continue
		}
		for _, a := range c.IPs {
			if a.Network != nil && clientNets[a.Network.Name] {
				reachable[a.IP] = c
			}
		}
	}
	return reachable
}

// ClientCommands builds the command list of the client population: the
// templates of every reachable node filled with its address, followed by
// the default commands of every client network
func ClientCommands(cfg *types.EmulationEnvConfig) []string {
	var cmds []string
	if cfg == nil || cfg.Traffic == nil || cfg.Traffic.ClientPopulation == nil {
		return cmds
	}
	reachable := ReachableFromClient(cfg)
	for _, n := range cfg.Traffic.NodeTrafficConfigs {
		c := cfg.Containers.Container(n.IP)
		if c == nil {
			if _, ok := reachable[n.IP]; ok {
				cmds = append(cmds, Instantiate(n.Commands, n.IP)...)
			}
			continue
		}
		for _, a := range c.IPs {
			if _, ok := reachable[a.IP]; ok {
				cmds = append(cmds, Instantiate(n.Commands, a.IP)...)
			}
		}
	}
	for _, net := range cfg.Traffic.ClientPopulation.Networks {
		cmds = append(cmds, Instantiate(DefaultSubnetCommands, net.Subnet)...)
	}
	return cmds
}

// Peers returns the traffic nodes node generates traffic towards: every
// node sharing a network with it, plus its target hosts when one of its
// jump hosts is such a direct peer
func Peers(cfg *types.EmulationEnvConfig, node *types.NodeTrafficConfig) []*types.NodeTrafficConfig {
	if cfg == nil || cfg.Traffic == nil {
		return nil
	}
	direct := make(map[string]bool)
	var peers []*types.NodeTrafficConfig
	for _, p := range cfg.Traffic.NodeTrafficConfigs {
		if p.IP == node.IP || !sharesNetwork(cfg, node.IP, p.IP) {
			continue
		}
		direct[p.IP] = true
		peers = append(peers, p)
	}

	relay := false
	for _, j := range node.JumpHosts {
		if j != node.IP && sharesNetwork(cfg, node.IP, j) {
			relay = true
			break
		}
	}
	if !relay {
		return peers
	}
	for _, t := range node.TargetHosts {
		if t == node.IP || direct[t] {
			continue
		}
		if p := cfg.Traffic.Node(t); p != nil {
			direct[t] = true
			peers = append(peers, p)
		}
	}
	return peers
}

// GeneratorCommands returns the commands of the traffic generator of node
func GeneratorCommands(cfg *types.EmulationEnvConfig, node *types.NodeTrafficConfig) []string {
	var cmds []string
	for _, p := range Peers(cfg, node) {
		cmds = append(cmds, Instantiate(p.Commands, p.IP)...)
	}
	return cmds
}

// Script renders cmds as a shell program running them forever, two seconds
// apart
func Script(cmds []string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\nwhile [ 1 ]\ndo\n")
	if len(cmds) == 0 {
		b.WriteString("    sleep 2\n")
	}
	for _, c := range cmds {
		b.WriteString("    sleep 2\n")
		b.WriteString("    " + c + "\n")
	}
	b.WriteString("done\n")
	return b.String()
}
