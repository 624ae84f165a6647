/*
Package firewall compiles a node's declared firewall and routing state into an
ordered plan of typed steps (Rule, Route, SubnetRoute, Flush, HostsEntry), each
of which renders to one shell command:

	ip route add 15.12.2.0 gw 15.12.2.1
	iptables -A FORWARD -d 15.12.2.2 -j ACCEPT
	arptables -A FORWARD -d 15.12.2.2 -j ACCEPT
	echo '15.12.2.10 router' >> /etc/hosts

Every ACL entry is installed in both iptables and arptables on the matching
chain. Both tables are flushed before the ACL is rebuilt, so applying a plan a
second time resets the node instead of duplicating rules.

Compile is pure; the topology package executes plans over SSH.
*/
package firewall
