/*
Package types defines the data model shared by every netemu package.

# Executions

An Execution is one running instantiation of an EmulationEnvConfig, keyed by
ExecutionID{Emulation, IPFirstOctet}. The first octet is the address-space
offset of the execution and doubles as its identifier:

	id := types.ExecutionID{Emulation: "level-2", IPFirstOctet: 15}
	id.Key() // "level-2/15"

Executions are read from the metastore on every request; nothing in this
package caches them.

# Ownership

Every node-scoped config (NodeFirewallConfig, NodeTrafficConfig,
NodeUsersConfig, OVSSwitchConfig, ...) carries physical_host_ip and implements
OwnerIP. Only the cluster manager on that host may change the node.
docker_gw_bridge_ip is the address the node's admin SSH server is reached on.

Node is the common projection of these configs used by controllers that act
on "every container with a host manager", "every IDS container" and so on.

# Wire types

dto.go holds the request and response shapes of the cluster manager RPCs and
the statuses reported by sidecar managers. Aggregated statuses use
ManagersInfo, whose slices always have one entry per node.
*/
package types
