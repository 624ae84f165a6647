package manager

import (
	"github.com/cuemby/netemu/pkg/sidecar"
)

// Route binds a named operation of the gRPC surface to a controller
// operation. Node-scoped routes address a single container.
type Route struct {
	Controller string
	Operation  Operation
	NodeScoped bool
}

// Request builds the dispatch request of the route
func (r Route) Request(emulation string, ipFirstOctet int, containerIP string) DispatchRequest {
	req := DispatchRequest{
		Controller:   r.Controller,
		Operation:    r.Operation,
		Emulation:    emulation,
		IPFirstOctet: ipFirstOctet,
	}
	if r.NodeScoped {
		req.ContainerIP = containerIP
	}
	return req
}

func execRoute(controller string, op Operation) Route {
	return Route{Controller: controller, Operation: op}
}

func nodeRoute(controller string, op Operation) Route {
	return Route{Controller: controller, Operation: op, NodeScoped: true}
}

// Routes lists every named lifecycle operation
var Routes = map[string]Route{
	"StartContainersInExecution": execRoute(ContainersController, OpStart),
	"StopContainersInExecution":  execRoute(ContainersController, OpStop),
	"CreateTopology":             execRoute(TopologyController, OpApplyConfig),
	"CreateUsers":                execRoute(UsersController, OpApplyConfig),
	"CreateVulnerabilities":      execRoute(VulnerabilitiesController, OpApplyConfig),
	"CreateFlags":                execRoute(FlagsController, OpApplyConfig),
	"ApplyResourceConstraints":   execRoute(ResourceConstraintsController, OpApplyConfig),
	"PingExecution":              execRoute(PingController, OpStatus),
	"CreateOvsSwitches":          execRoute(OVSController, OpStart),
	"ConfigureOvs":               execRoute(OVSController, OpApplyConfig),

	"StartTrafficManagers":          execRoute(TrafficManagerController, OpStart),
	"StopTrafficManagers":           execRoute(TrafficManagerController, OpStop),
	"StartTrafficManager":           nodeRoute(TrafficManagerController, OpStart),
	"StopTrafficManager":            nodeRoute(TrafficManagerController, OpStop),
	"StartTrafficGenerators":        execRoute(TrafficGeneratorController, OpStart),
	"StopTrafficGenerators":         execRoute(TrafficGeneratorController, OpStop),
	"StartTrafficGenerator":         nodeRoute(TrafficGeneratorController, OpStart),
	"StopTrafficGenerator":          nodeRoute(TrafficGeneratorController, OpStop),
	"CreateTrafficGeneratorScripts": execRoute(TrafficGeneratorController, OpApplyConfig),
	"StartClientManager":            nodeRoute(ClientManagerController, OpStart),
	"StopClientManager":             nodeRoute(ClientManagerController, OpStop),
	"StartClientPopulation":         execRoute(ClientPopulationController, OpStart),
	"StopClientPopulation":          execRoute(ClientPopulationController, OpStop),
	"StartClientProducer":           execRoute(ClientProducerController, OpStart),
	"StopClientProducer":            execRoute(ClientProducerController, OpStop),

	"StartHostManagers":       execRoute(HostManagerController, OpStart),
	"StopHostManagers":        execRoute(HostManagerController, OpStop),
	"StartHostManager":        nodeRoute(HostManagerController, OpStart),
	"StopHostManager":         nodeRoute(HostManagerController, OpStop),
	"StartHostMonitorThreads": execRoute(HostMonitorController, OpStart),
	"StopHostMonitorThreads":  execRoute(HostMonitorController, OpStop),
	"StartHostMonitorThread":  nodeRoute(HostMonitorController, OpStart),
	"StopHostMonitorThread":   nodeRoute(HostMonitorController, OpStop),

	"StartSnortIdsManagers":       execRoute(SnortIDSManagerController, OpStart),
	"StopSnortIdsManagers":        execRoute(SnortIDSManagerController, OpStop),
	"StartSnortIdsManager":        nodeRoute(SnortIDSManagerController, OpStart),
	"StopSnortIdsManager":         nodeRoute(SnortIDSManagerController, OpStop),
	"StartSnortIdses":             execRoute(SnortIDSController, OpStart),
	"StopSnortIdses":              execRoute(SnortIDSController, OpStop),
	"StartSnortIds":               nodeRoute(SnortIDSController, OpStart),
	"StopSnortIds":                nodeRoute(SnortIDSController, OpStop),
	"StartSnortIdsMonitorThreads": execRoute(SnortIDSMonitorController, OpStart),
	"StopSnortIdsMonitorThreads":  execRoute(SnortIDSMonitorController, OpStop),
	"StartSnortIdsMonitorThread":  nodeRoute(SnortIDSMonitorController, OpStart),
	"StopSnortIdsMonitorThread":   nodeRoute(SnortIDSMonitorController, OpStop),

	"StartOssecIdsManagers":       execRoute(OSSECIDSManagerController, OpStart),
	"StopOssecIdsManagers":        execRoute(OSSECIDSManagerController, OpStop),
	"StartOssecIdsManager":        nodeRoute(OSSECIDSManagerController, OpStart),
	"StopOssecIdsManager":         nodeRoute(OSSECIDSManagerController, OpStop),
	"StartOssecIdses":             execRoute(OSSECIDSController, OpStart),
	"StopOssecIdses":              execRoute(OSSECIDSController, OpStop),
	"StartOssecIds":               nodeRoute(OSSECIDSController, OpStart),
	"StopOssecIds":                nodeRoute(OSSECIDSController, OpStop),
	"StartOssecIdsMonitorThreads": execRoute(OSSECIDSMonitorController, OpStart),
	"StopOssecIdsMonitorThreads":  execRoute(OSSECIDSMonitorController, OpStop),
	"StartOssecIdsMonitorThread":  nodeRoute(OSSECIDSMonitorController, OpStart),
	"StopOssecIdsMonitorThread":   nodeRoute(OSSECIDSMonitorController, OpStop),

	"StartKafkaManager": execRoute(KafkaManagerController, OpStart),
	"StopKafkaManager":  execRoute(KafkaManagerController, OpStop),
	"StartKafkaServer":  execRoute(KafkaController, OpStart),
	"StopKafkaServer":   execRoute(KafkaController, OpStop),
	"ApplyKafkaConfig":  execRoute(KafkaController, OpApplyConfig),

	"StartElkManager": execRoute(ElkManagerController, OpStart),
	"StopElkManager":  execRoute(ElkManagerController, OpStop),
	"StartElkStack":   execRoute(ElkStackController, OpStart),
	"StopElkStack":    execRoute(ElkStackController, OpStop),

	"StartSdnController":        execRoute(SDNControllerController, OpStart),
	"StopSdnController":         execRoute(SDNControllerController, OpStop),
	"StartSdnControllerMonitor": execRoute(SDNControllerMonitorControl, OpStart),
	"StopSdnControllerMonitor":  execRoute(SDNControllerMonitorControl, OpStop),

	"StartDockerStatsManager": execRoute(DockerStatsManagerController, OpStart),
	"StopDockerStatsManager":  execRoute(DockerStatsManagerController, OpStop),
	"StartDockerStatsMonitor": execRoute(DockerStatsMonitorController, OpStart),
	"StopDockerStatsMonitor":  execRoute(DockerStatsMonitorController, OpStop),
}

// beat method names as exposed on the gRPC surface
var beatMethods = map[string]string{
	sidecar.Filebeat:   "FileBeat",
	sidecar.Packetbeat: "PacketBeat",
	sidecar.Metricbeat: "MetricBeat",
	sidecar.Heartbeat:  "HeartBeat",
}

func init() {
	for beat, name := range beatMethods {
		Routes["Apply"+name+"Configs"] = execRoute(beat, OpApplyConfig)
		Routes["Apply"+name+"Config"] = nodeRoute(beat, OpApplyConfig)
		Routes["Start"+name+"s"] = execRoute(beat, OpStart)
		Routes["Stop"+name+"s"] = execRoute(beat, OpStop)
		Routes["Start"+name] = nodeRoute(beat, OpStart)
		Routes["Stop"+name] = nodeRoute(beat, OpStop)
	}
}
