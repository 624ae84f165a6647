/*
Package network holds the host-side networking of the cluster manager.

HostIP discovers the address this host is known by in the cluster (the
address compared against physical_host_ip) from the interface carrying the
default route.

NetlinkShaper applies traffic shaping to the interfaces of a container running
on this host: it enters the container's network namespace through
/proc/<pid>/ns/net and replaces the root qdisc of each interface with a netem
qdisc carrying the configured delay, jitter, loss, corruption, duplication and
rate limit.
*/
package network
