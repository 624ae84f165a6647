package manager

import (
	"context"
	"time"

	"github.com/cuemby/netemu/pkg/config"
	"github.com/cuemby/netemu/pkg/health"
	"github.com/cuemby/netemu/pkg/types"
)

// Probe names of node status
const (
	ProbePostgres           = "postgres"
	ProbeDockerEngine       = "docker"
	ProbeNginx              = "nginx"
	ProbeFlask              = "flask"
	ProbeCAdvisor           = "cadvisor"
	ProbePrometheus         = "prometheus"
	ProbeGrafana            = "grafana"
	ProbePgAdmin            = "pgadmin"
	ProbeNodeExporter       = "node-exporter"
	ProbeDockerStatsManager = "docker-stats-manager"
)

const localhost = "127.0.0.1"

func defaultProbes(cfg *config.Config, pinger health.Pinger) []health.Probe {
	p := cfg.Probes
	tcp := func(name string, port int) health.Probe {
		return health.Probe{Name: name, Checker: health.NewTCPChecker(localhost, port)}
	}
	http := func(name string, port int, path string) health.Probe {
		return health.Probe{Name: name, Checker: health.NewHTTPChecker(localhost, port, path)}
	}
	return []health.Probe{
		tcp(ProbePostgres, p.PostgresPort),
		{Name: ProbeDockerEngine, Checker: &health.PingChecker{Target: pinger}},
		tcp(ProbeNginx, p.NginxPort),
		tcp(ProbeFlask, p.FlaskPort),
		http(ProbeCAdvisor, p.CAdvisorPort, "/healthz"),
		http(ProbePrometheus, p.PrometheusPort, "/-/healthy"),
		http(ProbeGrafana, p.GrafanaPort, "/api/health"),
		tcp(ProbePgAdmin, p.PgAdminPort),
		http(ProbeNodeExporter, p.NodeExporterPort, "/metrics"),
		// the stats manager is a local process; its port only answers gRPC
		{Name: ProbeDockerStatsManager, Checker: health.NewProcessChecker("docker_stats_manager")},
	}
}

// GetNodeStatus reports whether this host leads the cluster and which
// local services answer their probes. It has no side effects.
func (m *Manager) GetNodeStatus(ctx context.Context) types.NodeStatus {
	status := types.NodeStatus{IP: m.HostIP()}

	cluster, err := m.store.GetClusterConfig()
	if err != nil {
		m.logger.Debug().Err(err).Msg("No cluster config")
	}
	status.Leader = cluster.IsLeader(m.HostIP())

	timeout := m.cfg.Probes.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	results := health.RunAll(ctx, timeout, m.probes)
	up := func(name string) bool { return results[name].Healthy }

	status.PostgresRunning = up(ProbePostgres)
	status.DockerEngineRunning = up(ProbeDockerEngine)
	status.NginxRunning = up(ProbeNginx)
	status.FlaskRunning = up(ProbeFlask)
	status.CAdvisorRunning = up(ProbeCAdvisor)
	status.PrometheusRunning = up(ProbePrometheus)
	status.GrafanaRunning = up(ProbeGrafana)
	status.PgAdminRunning = up(ProbePgAdmin)
	status.NodeExporterRunning = up(ProbeNodeExporter)
	status.DockerStatsManagerRunning = up(ProbeDockerStatsManager)
	return status
}
