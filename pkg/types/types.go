package types

import (
	"fmt"
	"time"
)

// ExecutionID identifies one running instantiation of an emulation
type ExecutionID struct {
	Emulation    string `json:"emulation" yaml:"emulation"`
	IPFirstOctet int    `json:"ip_first_octet" yaml:"ip_first_octet"`
}

// Key returns the metastore key of the execution
func (id ExecutionID) Key() string {
	return fmt.Sprintf("%s/%d", id.Emulation, id.IPFirstOctet)
}

func (id ExecutionID) String() string {
	return id.Key()
}

// Execution is an emulation config instantiated on a set of physical servers
type Execution struct {
	EmulationName   string              `json:"emulation_name" yaml:"emulation_name"`
	IPFirstOctet    int                 `json:"ip_first_octet" yaml:"ip_first_octet"`
	Config          *EmulationEnvConfig `json:"config" yaml:"config"`
	PhysicalServers []string            `json:"physical_servers" yaml:"physical_servers"`
	Running         bool                `json:"running" yaml:"running"`
	CreatedAt       time.Time           `json:"created_at" yaml:"created_at"`
}

// ID returns the execution identifier
func (e *Execution) ID() ExecutionID {
	return ExecutionID{Emulation: e.EmulationName, IPFirstOctet: e.IPFirstOctet}
}

// HasPhysicalServer reports whether ip is one of the execution's servers
func (e *Execution) HasPhysicalServer(ip string) bool {
	for _, s := range e.PhysicalServers {
		if s == ip {
			return true
		}
	}
	return false
}

// EmulationEnvConfig is the full declarative description of an emulation
type EmulationEnvConfig struct {
	Name                string                     `json:"name" yaml:"name"`
	Containers          *ContainersConfig          `json:"containers,omitempty" yaml:"containers,omitempty"`
	Topology            *TopologyConfig            `json:"topology,omitempty" yaml:"topology,omitempty"`
	Traffic             *TrafficConfig             `json:"traffic,omitempty" yaml:"traffic,omitempty"`
	Users               *UsersConfig               `json:"users,omitempty" yaml:"users,omitempty"`
	Vulnerabilities     *VulnerabilitiesConfig     `json:"vulnerabilities,omitempty" yaml:"vulnerabilities,omitempty"`
	Flags               *FlagsConfig               `json:"flags,omitempty" yaml:"flags,omitempty"`
	ResourceConstraints *ResourceConstraintsConfig `json:"resource_constraints,omitempty" yaml:"resource_constraints,omitempty"`
	Kafka               *KafkaConfig               `json:"kafka,omitempty" yaml:"kafka,omitempty"`
	SDNController       *SDNControllerConfig       `json:"sdn_controller,omitempty" yaml:"sdn_controller,omitempty"`
	OVS                 *OVSConfig                 `json:"ovs,omitempty" yaml:"ovs,omitempty"`
	HostManager         *ManagerConfig             `json:"host_manager,omitempty" yaml:"host_manager,omitempty"`
	SnortIDSManager     *IDSManagerConfig          `json:"snort_ids_manager,omitempty" yaml:"snort_ids_manager,omitempty"`
	OSSECIDSManager     *IDSManagerConfig          `json:"ossec_ids_manager,omitempty" yaml:"ossec_ids_manager,omitempty"`
	Elk                 *ElkConfig                 `json:"elk,omitempty" yaml:"elk,omitempty"`
	DockerStatsManager  *ManagerConfig             `json:"docker_stats_manager,omitempty" yaml:"docker_stats_manager,omitempty"`
	Beats               *BeatsConfig               `json:"beats,omitempty" yaml:"beats,omitempty"`
}

// ContainerNetwork is a docker network shared by emulated containers
type ContainerNetwork struct {
	Name    string `json:"name" yaml:"name"`
	Subnet  string `json:"subnet" yaml:"subnet"` // CIDR, e.g. 15.12.2.0/24
	Bitmask string `json:"bitmask,omitempty" yaml:"bitmask,omitempty"`
}

// ContainerIP binds an address to the network it lives on
type ContainerIP struct {
	IP      string            `json:"ip" yaml:"ip"`
	Network *ContainerNetwork `json:"network" yaml:"network"`
}

// NodeContainerConfig describes one emulated container
type NodeContainerConfig struct {
	Name             string        `json:"name" yaml:"name"`
	Image            string        `json:"image,omitempty" yaml:"image,omitempty"`
	IPs              []ContainerIP `json:"ips" yaml:"ips"`
	DockerGwBridgeIP string        `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP   string        `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (c *NodeContainerConfig) OwnerIP() string { return c.PhysicalHostIP }

// PrimaryIP returns the first address of the container
func (c *NodeContainerConfig) PrimaryIP() string {
	if len(c.IPs) == 0 {
		return ""
	}
	return c.IPs[0].IP
}

// HasIP reports whether ip is one of the container's addresses
func (c *NodeContainerConfig) HasIP(ip string) bool {
	for _, a := range c.IPs {
		if a.IP == ip {
			return true
		}
	}
	return false
}

// Networks returns the names of every network the container is attached to
func (c *NodeContainerConfig) Networks() []string {
	names := make([]string, 0, len(c.IPs))
	for _, a := range c.IPs {
		if a.Network != nil {
			names = append(names, a.Network.Name)
		}
	}
	return names
}

// ContainersConfig lists every container and network of an emulation
type ContainersConfig struct {
	Containers []*NodeContainerConfig `json:"containers" yaml:"containers"`
	Networks   []*ContainerNetwork    `json:"networks" yaml:"networks"`
}

// Container returns the container holding ip, or nil
func (c *ContainersConfig) Container(ip string) *NodeContainerConfig {
	if c == nil {
		return nil
	}
	for _, n := range c.Containers {
		if n.HasIP(ip) {
			return n
		}
	}
	return nil
}

// Route is a static route installed on a node
type Route struct {
	Target  string `json:"target" yaml:"target"`
	Gateway string `json:"gateway" yaml:"gateway"`
}

// Verdict is an iptables/arptables target
type Verdict string

const (
	VerdictAccept Verdict = "ACCEPT"
	VerdictDrop   Verdict = "DROP"
)

// DefaultNetworkFirewallConfig is the default policy of a node towards one subnet
type DefaultNetworkFirewallConfig struct {
	IP             string            `json:"ip,omitempty" yaml:"ip,omitempty"`
	DefaultGateway string            `json:"default_gw,omitempty" yaml:"default_gw,omitempty"`
	DefaultInput   Verdict           `json:"default_input" yaml:"default_input"`
	DefaultOutput  Verdict           `json:"default_output" yaml:"default_output"`
	DefaultForward Verdict           `json:"default_forward" yaml:"default_forward"`
	Network        *ContainerNetwork `json:"network" yaml:"network"`
}

// NodeFirewallConfig is the declared firewall and routing state of one node
type NodeFirewallConfig struct {
	IPs                   []string                       `json:"ips" yaml:"ips"`
	Hostname              string                         `json:"hostname" yaml:"hostname"`
	OutputAccept          []string                       `json:"output_accept" yaml:"output_accept"`
	InputAccept           []string                       `json:"input_accept" yaml:"input_accept"`
	ForwardAccept         []string                       `json:"forward_accept" yaml:"forward_accept"`
	OutputDrop            []string                       `json:"output_drop" yaml:"output_drop"`
	InputDrop             []string                       `json:"input_drop" yaml:"input_drop"`
	ForwardDrop           []string                       `json:"forward_drop" yaml:"forward_drop"`
	Routes                []Route                        `json:"routes" yaml:"routes"`
	DefaultNetworkConfigs []DefaultNetworkFirewallConfig `json:"default_network_firewall_configs" yaml:"default_network_firewall_configs"`
	DockerGwBridgeIP      string                         `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP        string                         `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n *NodeFirewallConfig) OwnerIP() string { return n.PhysicalHostIP }

// PrimaryIP returns the first address of the node
func (n *NodeFirewallConfig) PrimaryIP() string {
	if len(n.IPs) == 0 {
		return ""
	}
	return n.IPs[0]
}

// TopologyConfig is the firewall/route graph of an emulation
type TopologyConfig struct {
	SubnetworkMasks []string              `json:"subnetwork_masks,omitempty" yaml:"subnetwork_masks,omitempty"`
	NodeConfigs     []*NodeFirewallConfig `json:"node_configs" yaml:"node_configs"`
}

// NodeTrafficConfig describes the internal traffic a node generates
type NodeTrafficConfig struct {
	IP                       string   `json:"ip" yaml:"ip"`
	Commands                 []string `json:"commands" yaml:"commands"`
	JumpHosts                []string `json:"jumphosts" yaml:"jumphosts"`
	TargetHosts              []string `json:"target_hosts" yaml:"target_hosts"`
	TrafficManagerPort       int      `json:"traffic_manager_port" yaml:"traffic_manager_port"`
	TrafficManagerLogFile    string   `json:"traffic_manager_log_file" yaml:"traffic_manager_log_file"`
	TrafficManagerLogDir     string   `json:"traffic_manager_log_dir" yaml:"traffic_manager_log_dir"`
	TrafficManagerMaxWorkers int      `json:"traffic_manager_max_workers" yaml:"traffic_manager_max_workers"`
	DockerGwBridgeIP         string   `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP           string   `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n *NodeTrafficConfig) OwnerIP() string { return n.PhysicalHostIP }

// ClientPopulationConfig describes the emulated client population
type ClientPopulationConfig struct {
	IP                         string              `json:"ip" yaml:"ip"`
	Networks                   []*ContainerNetwork `json:"networks" yaml:"networks"`
	ClientManagerPort          int                 `json:"client_manager_port" yaml:"client_manager_port"`
	ClientManagerLogFile       string              `json:"client_manager_log_file" yaml:"client_manager_log_file"`
	ClientManagerLogDir        string              `json:"client_manager_log_dir" yaml:"client_manager_log_dir"`
	ClientManagerMaxWorkers    int                 `json:"client_manager_max_workers" yaml:"client_manager_max_workers"`
	Mu                         float64             `json:"mu" yaml:"mu"`
	Lambda                     float64             `json:"lambda" yaml:"lambda"`
	TimeStepLenSeconds         int                 `json:"client_time_step_len_seconds" yaml:"client_time_step_len_seconds"`
	ProducerTimeStepLenSeconds int                 `json:"producer_time_step_len_seconds" yaml:"producer_time_step_len_seconds"`
	SineModulated              bool                `json:"sine_modulated" yaml:"sine_modulated"`
	TimeScalingFactor          float64             `json:"time_scaling_factor" yaml:"time_scaling_factor"`
	PeriodScalingFactor        float64             `json:"period_scaling_factor" yaml:"period_scaling_factor"`
	DockerGwBridgeIP           string              `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP             string              `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (c *ClientPopulationConfig) OwnerIP() string { return c.PhysicalHostIP }

// TrafficConfig groups internal traffic and client population
type TrafficConfig struct {
	NodeTrafficConfigs []*NodeTrafficConfig    `json:"node_traffic_configs" yaml:"node_traffic_configs"`
	ClientPopulation   *ClientPopulationConfig `json:"client_population_config" yaml:"client_population_config"`
}

// Node returns the traffic config of ip, or nil
func (t *TrafficConfig) Node(ip string) *NodeTrafficConfig {
	if t == nil {
		return nil
	}
	for _, n := range t.NodeTrafficConfigs {
		if n.IP == ip {
			return n
		}
	}
	return nil
}

// User is an account created inside a container
type User struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"pw" yaml:"pw"`
	Root     bool   `json:"root" yaml:"root"`
}

// NodeUsersConfig lists the accounts of one container
type NodeUsersConfig struct {
	IP               string `json:"ip" yaml:"ip"`
	Users            []User `json:"users" yaml:"users"`
	DockerGwBridgeIP string `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP   string `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n *NodeUsersConfig) OwnerIP() string { return n.PhysicalHostIP }

type UsersConfig struct {
	Nodes []*NodeUsersConfig `json:"users_configs" yaml:"users_configs"`
}

// NodeVulnerabilityConfig is a vulnerability installed by running commands on a node
type NodeVulnerabilityConfig struct {
	IP               string   `json:"ip" yaml:"ip"`
	Name             string   `json:"name" yaml:"name"`
	Type             string   `json:"vuln_type" yaml:"vuln_type"`
	Commands         []string `json:"commands" yaml:"commands"`
	DockerGwBridgeIP string   `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP   string   `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n *NodeVulnerabilityConfig) OwnerIP() string { return n.PhysicalHostIP }

type VulnerabilitiesConfig struct {
	Nodes []*NodeVulnerabilityConfig `json:"node_vulnerability_configs" yaml:"node_vulnerability_configs"`
}

// Flag is a file planted on a node
type Flag struct {
	Name         string `json:"name" yaml:"name"`
	Path         string `json:"path" yaml:"path"`
	Dir          string `json:"dir" yaml:"dir"`
	RequiresRoot bool   `json:"requires_root" yaml:"requires_root"`
}

type NodeFlagsConfig struct {
	IP               string `json:"ip" yaml:"ip"`
	Flags            []Flag `json:"flags" yaml:"flags"`
	DockerGwBridgeIP string `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP   string `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n *NodeFlagsConfig) OwnerIP() string { return n.PhysicalHostIP }

type FlagsConfig struct {
	Nodes []*NodeFlagsConfig `json:"node_flag_configs" yaml:"node_flag_configs"`
}

// NetemConfig shapes the traffic of one interface
type NetemConfig struct {
	Interface           string  `json:"interface" yaml:"interface"`
	PacketDelayMs       float64 `json:"packet_delay_ms" yaml:"packet_delay_ms"`
	PacketDelayJitterMs float64 `json:"packet_delay_jitter_ms" yaml:"packet_delay_jitter_ms"`
	PacketLossRate      float64 `json:"loss_gemodel_p" yaml:"loss_gemodel_p"`
	PacketCorruptRate   float64 `json:"packet_corrupt_percentage" yaml:"packet_corrupt_percentage"`
	PacketDuplicateRate float64 `json:"packet_duplicate_percentage" yaml:"packet_duplicate_percentage"`
	RateLimitMbit       float64 `json:"rate_limit_mbit" yaml:"rate_limit_mbit"`
}

// NodeResourcesConfig bounds the resources of one container
type NodeResourcesConfig struct {
	ContainerName    string        `json:"container_name" yaml:"container_name"`
	IP               string        `json:"ip" yaml:"ip"`
	CPUs             float64       `json:"num_cpus" yaml:"num_cpus"`
	MemoryMB         int64         `json:"available_memory_mb" yaml:"available_memory_mb"`
	Interfaces       []NetemConfig `json:"ips_and_network_configs" yaml:"ips_and_network_configs"`
	DockerGwBridgeIP string        `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP   string        `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n *NodeResourcesConfig) OwnerIP() string { return n.PhysicalHostIP }

type ResourceConstraintsConfig struct {
	Nodes []*NodeResourcesConfig `json:"node_resources_configurations" yaml:"node_resources_configurations"`
}

// ManagerConfig is the common shape of every sidecar manager config
type ManagerConfig struct {
	Port       int    `json:"port" yaml:"port"`
	LogFile    string `json:"log_file" yaml:"log_file"`
	LogDir     string `json:"log_dir" yaml:"log_dir"`
	MaxWorkers int    `json:"max_workers" yaml:"max_workers"`
	// TimeStepLenSeconds is the reporting period of the manager's monitor
	TimeStepLenSeconds int `json:"time_step_len_seconds" yaml:"time_step_len_seconds"`
}

// IDSManagerConfig is a ManagerConfig restricted to the IDS containers
type IDSManagerConfig struct {
	ManagerConfig `json:",inline" yaml:",inline"`
	// IPs of the containers running the IDS; empty means none
	IPs []string `json:"ips" yaml:"ips"`
}

type KafkaTopic struct {
	Name       string `json:"name" yaml:"name"`
	Partitions int    `json:"num_partitions" yaml:"num_partitions"`
	Replicas   int    `json:"num_replicas" yaml:"num_replicas"`
	RetentionH int    `json:"retention_time_hours" yaml:"retention_time_hours"`
}

type KafkaConfig struct {
	Container *NodeContainerConfig `json:"container" yaml:"container"`
	Manager   ManagerConfig        `json:"manager" yaml:"manager"`
	KafkaPort int                  `json:"kafka_port" yaml:"kafka_port"`
	Topics    []KafkaTopic         `json:"topics" yaml:"topics"`
}

type ElkConfig struct {
	Container         *NodeContainerConfig `json:"container" yaml:"container"`
	Manager           ManagerConfig        `json:"manager" yaml:"manager"`
	ElasticPort       int                  `json:"elastic_port" yaml:"elastic_port"`
	KibanaPort        int                  `json:"kibana_port" yaml:"kibana_port"`
	LogstashBeatsPort int                  `json:"logstash_beats_port" yaml:"logstash_beats_port"`
}

type SDNControllerConfig struct {
	Container         *NodeContainerConfig `json:"container" yaml:"container"`
	Manager           ManagerConfig        `json:"manager" yaml:"manager"`
	ControllerModule  string               `json:"controller_module_name" yaml:"controller_module_name"`
	ControllerPort    int                  `json:"controller_port" yaml:"controller_port"`
	ControllerWebPort int                  `json:"controller_web_api_port" yaml:"controller_web_api_port"`
}

// OVSSwitchConfig describes one Open vSwitch container
type OVSSwitchConfig struct {
	ContainerName       string   `json:"container_name" yaml:"container_name"`
	IP                  string   `json:"ip" yaml:"ip"`
	Bridge              string   `json:"bridge" yaml:"bridge"`
	ControllerIP        string   `json:"controller_ip" yaml:"controller_ip"`
	ControllerPort      int      `json:"controller_port" yaml:"controller_port"`
	ControllerTransport string   `json:"controller_transport_protocol" yaml:"controller_transport_protocol"`
	OpenFlowProtocols   []string `json:"openflow_protocols" yaml:"openflow_protocols"`
	DockerGwBridgeIP    string   `json:"docker_gw_bridge_ip" yaml:"docker_gw_bridge_ip"`
	PhysicalHostIP      string   `json:"physical_host_ip" yaml:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (s *OVSSwitchConfig) OwnerIP() string { return s.PhysicalHostIP }

type OVSConfig struct {
	SwitchConfigs []*OVSSwitchConfig `json:"switch_configs" yaml:"switch_configs"`
}

// NodeBeatsConfig selects which beats run on a node and what they ship
type NodeBeatsConfig struct {
	IP                  string   `json:"ip" yaml:"ip"`
	LogFiles            []string `json:"log_files_paths" yaml:"log_files_paths"`
	FilebeatModules     []string `json:"filebeat_modules" yaml:"filebeat_modules"`
	MetricbeatModules   []string `json:"metricbeat_modules" yaml:"metricbeat_modules"`
	HeartbeatHosts      []string `json:"heartbeat_hosts_to_monitor" yaml:"heartbeat_hosts_to_monitor"`
	KafkaInput          bool     `json:"kafka_input" yaml:"kafka_input"`
	StartFilebeatAuto   bool     `json:"start_filebeat_automatically" yaml:"start_filebeat_automatically"`
	StartPacketbeatAuto bool     `json:"start_packetbeat_automatically" yaml:"start_packetbeat_automatically"`
	StartMetricbeatAuto bool     `json:"start_metricbeat_automatically" yaml:"start_metricbeat_automatically"`
	StartHeartbeatAuto  bool     `json:"start_heartbeat_automatically" yaml:"start_heartbeat_automatically"`
}

type BeatsConfig struct {
	Nodes []*NodeBeatsConfig `json:"node_beats_configs" yaml:"node_beats_configs"`
}

// Node returns the beats config of ip, or nil
func (b *BeatsConfig) Node(ip string) *NodeBeatsConfig {
	if b == nil {
		return nil
	}
	for _, n := range b.Nodes {
		if n.IP == ip {
			return n
		}
	}
	return nil
}

// ClusterNode is a static member of the physical cluster
type ClusterNode struct {
	IP     string  `json:"ip" yaml:"ip"`
	Leader bool    `json:"leader" yaml:"leader"`
	CPUs   int     `json:"cpus" yaml:"cpus"`
	GPUs   int     `json:"gpus" yaml:"gpus"`
	RAMGB  float64 `json:"ram_gb" yaml:"ram_gb"`
}

// ClusterConfig is the static list of physical servers
type ClusterConfig struct {
	Nodes []ClusterNode `json:"cluster_nodes" yaml:"cluster_nodes"`
}

// IsLeader reports whether ip is a leader of the cluster
func (c *ClusterConfig) IsLeader(ip string) bool {
	if c == nil {
		return false
	}
	for _, n := range c.Nodes {
		if n.IP == ip {
			return n.Leader
		}
	}
	return false
}
