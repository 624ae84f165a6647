/*
Package traffic drives the traffic of an emulation: the traffic manager
sidecar of every node, the client manager of the client population and the
generator scripts the traffic managers execute.

Reachability is derived from docker network membership. A node generates
traffic towards every node sharing a network with it, and towards its
target hosts when one of its jump hosts is such a direct peer. Each peer
contributes its command templates with the {} placeholder replaced by its
address. A node with no commands, such as a pure jump host, contributes
nothing but still relays.

The generator script of a node loops forever, sleeping two seconds before
each command:

	#!/bin/bash
	while [ 1 ]
	do
	    sleep 2
	    ping -c 1 15.12.2.79
	done

It is written to /traffic_generator.sh over SFTP with mode 0777.
*/
package traffic
