/*
Package metrics exposes Prometheus metrics of the manager daemon.

RPC counters and latencies are recorded by the API interceptor, remote command
results by sshexec, per-node fan-out results and aggregation failures by the
ownership helpers, and execution gauges by the Collector, which reads the
metastore every 15 seconds. Handler serves everything on /metrics.

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TopologyApplyDuration)
*/
package metrics
