/*
Package api serves a cluster manager over gRPC.

The netemu.ClusterManager service is declared with pkg/rpc and speaks JSON
messages, so it needs no generated stubs. Every named lifecycle operation
of manager.Routes becomes one method taking an ExecutionRequest, or a
NodeRequest for node-scoped routes, and returning an OperationOutcome:

	/netemu.ClusterManager/StartTrafficManagers   {"emulation":"csle-level9","ip_first_octet":15}
	/netemu.ClusterManager/StartHostManager       {"emulation":"csle-level9","ip_first_octet":15,"container_ip":"15.9.2.2"}

Besides the lifecycle methods the service exposes Dispatch, node status,
sidecar aggregations, host-local container, image and network control, and
log retrieval. Lifecycle failures travel inside the outcome; the other
methods map manager errors onto gRPC status codes (NotFound for unknown
executions, Unavailable without a container engine).

Every call passes ObserveInterceptor, which assigns an x-request-id,
records netemu_rpc_requests_total and netemu_rpc_duration_seconds, and logs
the call. The standard grpc.health.v1 service is registered next to it.

StartUnix serves the same service on a local socket behind
ReadOnlyInterceptor, for inspection from the host itself.

HealthServer serves /health, /ready and /metrics over HTTP.
*/
package api
