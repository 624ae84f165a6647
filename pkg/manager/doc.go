/*
Package manager implements the per-host cluster manager.

Every physical server of a cluster runs one manager. It receives lifecycle
commands addressed to an execution, reads the execution fresh from the
metastore and acts only on the nodes whose physical host is this server.
Nodes owned by other servers are left untouched and reported as
outcome=false without an error, so an orchestrator can broadcast each call
to every manager of the cluster.

# Dispatch

Controllers are registered by name in a Registry. Each one declares its
target nodes and the operations it supports:

	out := mgr.Dispatch(ctx, manager.DispatchRequest{
		Controller:   manager.TrafficManagerController,
		Operation:    manager.OpStart,
		Emulation:    "csle-level9",
		IPFirstOctet: 15,
	})

An empty ContainerIP fans the operation out over every owned node with
bounded concurrency. A ContainerIP addresses one node after the ownership
check. Failures are returned as outcome=false with the error text.

Routes maps the named operations of the gRPC surface onto
(controller, operation) pairs.

# Aggregation

The Get*Info methods query one sidecar manager per node. Unreachable
managers are reported as not running with an empty status, and the
result slices always have one entry per node.
*/
package manager
