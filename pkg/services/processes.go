package services

import "github.com/cuemby/netemu/pkg/types"

// Executables of the sidecar managers
const (
	TrafficManagerBinary     = "traffic_manager"
	ClientManagerBinary      = "client_manager"
	HostManagerBinary        = "host_manager"
	SnortIDSManagerBinary    = "snort_ids_manager"
	OSSECIDSManagerBinary    = "ossec_ids_manager"
	KafkaManagerBinary       = "kafka_manager"
	ElkManagerBinary         = "elk_manager"
	SDNControllerBinary      = "ryu_manager"
	DockerStatsManagerBinary = "docker_stats_manager"
)

func fromManager(binary string, m *types.ManagerConfig) Process {
	if m == nil {
		return Process{Binary: binary}
	}
	return Process{Binary: binary, Port: m.Port, LogDir: m.LogDir, LogFile: m.LogFile, MaxWorkers: m.MaxWorkers}
}

// TrafficManager is the traffic manager process of a node
func TrafficManager(n *types.NodeTrafficConfig) Process {
	return Process{
		Binary:     TrafficManagerBinary,
		Port:       n.TrafficManagerPort,
		LogDir:     n.TrafficManagerLogDir,
		LogFile:    n.TrafficManagerLogFile,
		MaxWorkers: n.TrafficManagerMaxWorkers,
	}
}

// ClientManager is the process driving the client population
func ClientManager(c *types.ClientPopulationConfig) Process {
	return Process{
		Binary:     ClientManagerBinary,
		Port:       c.ClientManagerPort,
		LogDir:     c.ClientManagerLogDir,
		LogFile:    c.ClientManagerLogFile,
		MaxWorkers: c.ClientManagerMaxWorkers,
	}
}

func HostManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil {
		return Process{Binary: HostManagerBinary}
	}
	return fromManager(HostManagerBinary, cfg.HostManager)
}

func SnortIDSManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil || cfg.SnortIDSManager == nil {
		return Process{Binary: SnortIDSManagerBinary}
	}
	return fromManager(SnortIDSManagerBinary, &cfg.SnortIDSManager.ManagerConfig)
}

func OSSECIDSManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil || cfg.OSSECIDSManager == nil {
		return Process{Binary: OSSECIDSManagerBinary}
	}
	return fromManager(OSSECIDSManagerBinary, &cfg.OSSECIDSManager.ManagerConfig)
}

func KafkaManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil || cfg.Kafka == nil {
		return Process{Binary: KafkaManagerBinary}
	}
	return fromManager(KafkaManagerBinary, &cfg.Kafka.Manager)
}

func ElkManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil || cfg.Elk == nil {
		return Process{Binary: ElkManagerBinary}
	}
	return fromManager(ElkManagerBinary, &cfg.Elk.Manager)
}

func SDNControllerManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil || cfg.SDNController == nil {
		return Process{Binary: SDNControllerBinary}
	}
	return fromManager(SDNControllerBinary, &cfg.SDNController.Manager)
}

func DockerStatsManager(cfg *types.EmulationEnvConfig) Process {
	if cfg == nil {
		return Process{Binary: DockerStatsManagerBinary}
	}
	return fromManager(DockerStatsManagerBinary, cfg.DockerStatsManager)
}
