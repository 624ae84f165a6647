package types

// OperationOutcome is the result of every lifecycle and node-scoped operation.
// Outcome=false with an empty Error means the operation did not apply to this host.
type OperationOutcome struct {
	Outcome bool   `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// ExecutionRequest addresses a whole execution
type ExecutionRequest struct {
	Emulation    string `json:"emulation"`
	IPFirstOctet int    `json:"ip_first_octet"`
}

func (r *ExecutionRequest) ID() ExecutionID {
	return ExecutionID{Emulation: r.Emulation, IPFirstOctet: r.IPFirstOctet}
}

// NodeRequest addresses one container of an execution
type NodeRequest struct {
	Emulation    string `json:"emulation"`
	IPFirstOctet int    `json:"ip_first_octet"`
	ContainerIP  string `json:"container_ip"`
}

func (r *NodeRequest) ID() ExecutionID {
	return ExecutionID{Emulation: r.Emulation, IPFirstOctet: r.IPFirstOctet}
}

// EmulationRequest addresses every execution of an emulation
type EmulationRequest struct {
	Emulation string `json:"emulation"`
}

// NameRequest carries a container, network, image, unit or file name
type NameRequest struct {
	Name string `json:"name"`
}

// LogsDTO carries the tail of a log
type LogsDTO struct {
	Logs []string `json:"logs"`
}

// NodeStatus is the status of the local physical host
type NodeStatus struct {
	IP                        string `json:"ip"`
	Leader                    bool   `json:"leader"`
	PostgresRunning           bool   `json:"postgresRunning"`
	DockerEngineRunning       bool   `json:"dockerEngineRunning"`
	NginxRunning              bool   `json:"nginxRunning"`
	FlaskRunning              bool   `json:"flaskRunning"`
	CAdvisorRunning           bool   `json:"cAdvisorRunning"`
	PrometheusRunning         bool   `json:"prometheusRunning"`
	GrafanaRunning            bool   `json:"grafanaRunning"`
	PgAdminRunning            bool   `json:"pgAdminRunning"`
	NodeExporterRunning       bool   `json:"nodeExporterRunning"`
	DockerStatsManagerRunning bool   `json:"dockerStatsManagerRunning"`
}

// ManagersInfo aggregates the status of one kind of sidecar manager over every node.
// All slices have the same length as the node list.
type ManagersInfo[S any] struct {
	IPs           []string `json:"ips"`
	Ports         []int    `json:"ports"`
	EmulationName string   `json:"emulationName"`
	ExecutionID   int      `json:"executionId"`
	Running       []bool   `json:"running"`
	Statuses      []S      `json:"statuses"`
}

// TrafficManagerStatus is reported by a traffic manager sidecar
type TrafficManagerStatus struct {
	Running bool   `json:"running"`
	Script  string `json:"script,omitempty"`
}

// ClientManagerStatus is reported by the client manager sidecar
type ClientManagerStatus struct {
	NumClients          int  `json:"num_clients"`
	ClientProcessActive bool `json:"client_process_active"`
	ProducerActive      bool `json:"producer_active"`
	ClientsTimeStepLen  int  `json:"clients_time_step_len_seconds"`
	ProducerTimeStepLen int  `json:"producer_time_step_len_seconds"`
}

// HostManagerStatus is reported by a host manager sidecar
type HostManagerStatus struct {
	Monitor    bool   `json:"monitor_running"`
	Filebeat   bool   `json:"filebeat_running"`
	Packetbeat bool   `json:"packetbeat_running"`
	Metricbeat bool   `json:"metricbeat_running"`
	Heartbeat  bool   `json:"heartbeat_running"`
	IP         string `json:"ip,omitempty"`
}

// IDSManagerStatus is reported by the Snort and OSSEC IDS manager sidecars
type IDSManagerStatus struct {
	MonitorRunning bool `json:"monitor_running"`
	IDSRunning     bool `json:"ids_running"`
}

// KafkaManagerStatus is reported by the Kafka manager sidecar
type KafkaManagerStatus struct {
	Running bool     `json:"running"`
	Topics  []string `json:"topics"`
}

// ElkManagerStatus is reported by the Elk manager sidecar
type ElkManagerStatus struct {
	ElasticRunning  bool `json:"elastic_running"`
	KibanaRunning   bool `json:"kibana_running"`
	LogstashRunning bool `json:"logstash_running"`
}

// DockerStatsManagerStatus is reported by the docker stats manager sidecar
type DockerStatsManagerStatus struct {
	NumMonitors         int      `json:"num_monitors"`
	Emulations          []string `json:"emulations"`
	EmulationExecutions []int    `json:"emulation_executions"`
}

// SDNControllerStatus is reported by the SDN controller manager sidecar
type SDNControllerStatus struct {
	ControllerRunning bool `json:"ryu_running"`
	MonitorRunning    bool `json:"monitor_running"`
}

// ContainerDTO describes a docker container
type ContainerDTO struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	ID    string `json:"id"`
	State string `json:"state"`
}

// ImageDTO describes a docker image
type ImageDTO struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Size int64  `json:"size"`
}

// NetworkDTO describes a docker network
type NetworkDTO struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ManagerLogsRequest addresses the log of a sidecar manager on one node
type ManagerLogsRequest struct {
	Emulation    string `json:"emulation"`
	IPFirstOctet int    `json:"ip_first_octet"`
	ContainerIP  string `json:"container_ip"`
	Controller   string `json:"controller"`
}

// ContainersDTO lists docker containers
type ContainersDTO struct {
	Containers []ContainerDTO `json:"containers"`
}

// ImagesDTO lists docker images
type ImagesDTO struct {
	Images []ImageDTO `json:"images"`
}

// NetworksDTO lists docker networks
type NetworksDTO struct {
	Networks []NetworkDTO `json:"networks"`
}

// ListContainersRequest selects running or all containers
type ListContainersRequest struct {
	All bool `json:"all"`
}
