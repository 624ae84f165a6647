package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Execution metrics
	ExecutionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netemu_executions_total",
			Help: "Number of executions in the metastore by running state",
		},
		[]string{"running"},
	)

	IsLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netemu_is_leader",
			Help: "Whether this host is a leader of the cluster config (1 = leader)",
		},
	)

	// API metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netemu_rpc_requests_total",
			Help: "Total number of RPC requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	RPCDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netemu_rpc_duration_seconds",
			Help:    "RPC duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Controller metrics
	RemoteCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netemu_remote_commands_total",
			Help: "Remote commands executed on emulated nodes by transport and result",
		},
		[]string{"kind", "result"},
	)

	FanOutNodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netemu_fanout_nodes_total",
			Help: "Per-node operations of execution-wide fan-outs by controller and result",
		},
		[]string{"controller", "result"},
	)

	AggregationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netemu_aggregation_failures_total",
			Help: "Sidecar managers that could not be queried during aggregation",
		},
		[]string{"controller"},
	)

	TopologyApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netemu_topology_apply_duration_seconds",
			Help:    "Time taken to apply the topology of one node",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ExecutionsTotal)
	prometheus.MustRegister(IsLeader)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCDuration)
	prometheus.MustRegister(RemoteCommandsTotal)
	prometheus.MustRegister(FanOutNodesTotal)
	prometheus.MustRegister(AggregationFailures)
	prometheus.MustRegister(TopologyApplyDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
