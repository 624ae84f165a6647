/*
Package topology applies the declared firewall and routing state of the
nodes of an execution. For every node whose physical_host_ip matches this
host it compiles a firewall.Plan and runs it over one SSH session to the
node's docker_gw_bridge_ip:

 1. static routes, then subnet routes through default gateways
 2. flush iptables and arptables
 3. /etc/hosts: own entry, fixed IPv6 entries, one line per other node
 4. explicit ACCEPT rules, then explicit DROP rules
 5. per-subnet default rules

Every exit status is checked. The first failing command aborts the node and
is reported; other nodes continue. A route that already exists is accepted.
*/
package topology
