package firewall

import (
	"fmt"

	"github.com/cuemby/netemu/pkg/types"
)

// Table is the netfilter front-end a rule is installed with
type Table string

const (
	IPTables  Table = "iptables"
	ARPTables Table = "arptables"
)

// Tables mirrors every IP-layer ACL at the ARP layer
var Tables = []Table{IPTables, ARPTables}

// Chain is a built-in filter chain
type Chain string

const (
	ChainOutput  Chain = "OUTPUT"
	ChainInput   Chain = "INPUT"
	ChainForward Chain = "FORWARD"
)

// Direction returns the address flag matched by the chain: outgoing and
// forwarded traffic match the destination, incoming traffic the source
func (c Chain) Direction() string {
	if c == ChainInput {
		return "-s"
	}
	return "-d"
}

// Step is one command of a node plan
type Step interface {
	Render() string
}

// Rule appends one filter rule
type Rule struct {
	Table   Table
	Chain   Chain
	Match   string // peer IP or subnet CIDR
	Verdict types.Verdict
}

func (r Rule) Render() string {
	return fmt.Sprintf("%s -A %s %s %s -j %s", r.Table, r.Chain, r.Chain.Direction(), r.Match, r.Verdict)
}

// Flush removes every rule of a table
type Flush struct {
	Table Table
}

func (f Flush) Render() string {
	return fmt.Sprintf("%s -F", f.Table)
}

// Route adds a static host/network route
type Route struct {
	Target  string
	Gateway string
}

func (r Route) Render() string {
	return fmt.Sprintf("ip route add %s gw %s", r.Target, r.Gateway)
}

// SubnetRoute routes a whole subnet through its default gateway
type SubnetRoute struct {
	Network string
	Netmask string
	Gateway string
}

func (r SubnetRoute) Render() string {
	return fmt.Sprintf("route add -net %s netmask %s gw %s", r.Network, r.Netmask, r.Gateway)
}

// HostsEntry writes one /etc/hosts line. Overwrite truncates the file first.
type HostsEntry struct {
	IP        string
	Hostname  string
	Overwrite bool
}

func (h HostsEntry) Render() string {
	redirect := ">>"
	if h.Overwrite {
		redirect = ">"
	}
	return fmt.Sprintf("echo '%s %s' %s /etc/hosts", h.IP, h.Hostname, redirect)
}

// DefaultHostsEntries are written after the node's own entry
var DefaultHostsEntries = []HostsEntry{
	{IP: "::1", Hostname: "localhost ip6-localhost ip6-loopback"},
	{IP: "fe00::0", Hostname: "ip6-localnet"},
	{IP: "ff00::0", Hostname: "ip6-mcastprefix"},
	{IP: "ff02::1", Hostname: "ip6-allnodes"},
	{IP: "ff02::2", Hostname: "ip6-allrouters"},
}
