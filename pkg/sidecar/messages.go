package sidecar

// Service names of the sidecar managers
const (
	TrafficManagerService     = "netemu.sidecar.TrafficManager"
	ClientManagerService      = "netemu.sidecar.ClientManager"
	HostManagerService        = "netemu.sidecar.HostManager"
	SnortIDSManagerService    = "netemu.sidecar.SnortIDSManager"
	OSSECIDSManagerService    = "netemu.sidecar.OSSECIDSManager"
	KafkaManagerService       = "netemu.sidecar.KafkaManager"
	ElkManagerService         = "netemu.sidecar.ElkManager"
	DockerStatsManagerService = "netemu.sidecar.DockerStatsManager"
	SDNControllerService      = "netemu.sidecar.SDNControllerManager"
)

// Method names shared by the sidecar services
const (
	MethodStatus        = "GetStatus"
	MethodStart         = "Start"
	MethodStop          = "Stop"
	MethodStartMonitor  = "StartMonitor"
	MethodStopMonitor   = "StopMonitor"
	MethodStartProducer = "StartProducer"
	MethodStopProducer  = "StopProducer"
	MethodConfigBeat    = "ConfigBeat"
	MethodStartBeat     = "StartBeat"
	MethodStopBeat      = "StopBeat"
	MethodCreateTopic   = "CreateTopic"
)

// Beat names understood by the host manager
const (
	Filebeat   = "filebeat"
	Packetbeat = "packetbeat"
	Metricbeat = "metricbeat"
	Heartbeat  = "heartbeat"
)

// StartClientsRequest starts the arrival process of the client population
type StartClientsRequest struct {
	Mu                  float64  `json:"mu"`
	Lambda              float64  `json:"lambda"`
	TimeStepLenSeconds  int      `json:"time_step_len_seconds"`
	Commands            []string `json:"commands"`
	SineModulated       bool     `json:"sine_modulated"`
	TimeScalingFactor   float64  `json:"time_scaling_factor"`
	PeriodScalingFactor float64  `json:"period_scaling_factor"`
}

// KafkaTarget points a monitor or producer at the Kafka broker
type KafkaTarget struct {
	KafkaIP            string `json:"kafka_ip"`
	KafkaPort          int    `json:"kafka_port"`
	TimeStepLenSeconds int    `json:"time_step_len_seconds"`
}

// BeatRequest selects one beat on a host manager
type BeatRequest struct {
	Beat string `json:"beat"`
}

// BeatConfigRequest renders the config of one beat on a node
type BeatConfigRequest struct {
	Beat           string   `json:"beat"`
	LogFiles       []string `json:"log_files_paths,omitempty"`
	Modules        []string `json:"modules,omitempty"`
	HeartbeatHosts []string `json:"heartbeat_hosts,omitempty"`
	KafkaInput     bool     `json:"kafka_input"`
	KafkaIP        string   `json:"kafka_ip,omitempty"`
	KafkaPort      int      `json:"kafka_port,omitempty"`
	ElasticIP      string   `json:"elastic_ip,omitempty"`
	ElasticPort    int      `json:"elastic_port,omitempty"`
	KibanaIP       string   `json:"kibana_ip,omitempty"`
	KibanaPort     int      `json:"kibana_port,omitempty"`
	LogstashIP     string   `json:"logstash_ip,omitempty"`
	LogstashPort   int      `json:"logstash_port,omitempty"`
}

// CreateTopicRequest creates one Kafka topic
type CreateTopicRequest struct {
	Name       string `json:"name"`
	Partitions int    `json:"partitions"`
	Replicas   int    `json:"replicas"`
	RetentionH int    `json:"retention_time_hours"`
}

// DockerStatsMonitorRequest starts the stats monitor of one execution
type DockerStatsMonitorRequest struct {
	Emulation    string `json:"emulation"`
	IPFirstOctet int    `json:"ip_first_octet"`
	KafkaTarget
}

// SDNControllerStartRequest starts the controller with a module
type SDNControllerStartRequest struct {
	Module  string `json:"module"`
	Port    int    `json:"port"`
	WebPort int    `json:"web_port"`
}
