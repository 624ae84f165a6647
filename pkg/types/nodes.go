package types

// Node addresses one emulated container: its emulation IP, the address its
// admin SSH server listens on and the physical host that owns it
type Node struct {
	IP               string `json:"ip"`
	DockerGwBridgeIP string `json:"docker_gw_bridge_ip"`
	PhysicalHostIP   string `json:"physical_host_ip"`
}

// OwnerIP implements ownership.Owned
func (n Node) OwnerIP() string { return n.PhysicalHostIP }

// AdminIP is the address sidecar managers of the node are reached on: the
// docker_gwbridge address, or IP when the node has none
func (n Node) AdminIP() string {
	if n.DockerGwBridgeIP != "" {
		return n.DockerGwBridgeIP
	}
	return n.IP
}

func containerNode(c *NodeContainerConfig) Node {
	return Node{IP: c.PrimaryIP(), DockerGwBridgeIP: c.DockerGwBridgeIP, PhysicalHostIP: c.PhysicalHostIP}
}

// ContainerNodes returns every container of the emulation
func (c *EmulationEnvConfig) ContainerNodes() []Node {
	if c == nil || c.Containers == nil {
		return nil
	}
	nodes := make([]Node, 0, len(c.Containers.Containers))
	for _, ct := range c.Containers.Containers {
		nodes = append(nodes, containerNode(ct))
	}
	return nodes
}

// ContainerNode returns the container holding ip
func (c *EmulationEnvConfig) ContainerNode(ip string) (Node, bool) {
	if c == nil {
		return Node{}, false
	}
	ct := c.Containers.Container(ip)
	if ct == nil {
		return Node{}, false
	}
	return containerNode(ct), true
}

func (c *EmulationEnvConfig) idsNodes(cfg *IDSManagerConfig) []Node {
	if cfg == nil {
		return nil
	}
	var nodes []Node
	for _, ip := range cfg.IPs {
		if n, ok := c.ContainerNode(ip); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// SnortIDSNodes returns the containers running a Snort IDS
func (c *EmulationEnvConfig) SnortIDSNodes() []Node {
	if c == nil {
		return nil
	}
	return c.idsNodes(c.SnortIDSManager)
}

// OSSECIDSNodes returns the containers running an OSSEC IDS
func (c *EmulationEnvConfig) OSSECIDSNodes() []Node {
	if c == nil {
		return nil
	}
	return c.idsNodes(c.OSSECIDSManager)
}

func singleNode(ct *NodeContainerConfig) []Node {
	if ct == nil {
		return nil
	}
	return []Node{containerNode(ct)}
}

// KafkaNodes returns the Kafka container, if any
func (c *EmulationEnvConfig) KafkaNodes() []Node {
	if c == nil || c.Kafka == nil {
		return nil
	}
	return singleNode(c.Kafka.Container)
}

// ElkNodes returns the Elk container, if any
func (c *EmulationEnvConfig) ElkNodes() []Node {
	if c == nil || c.Elk == nil {
		return nil
	}
	return singleNode(c.Elk.Container)
}

// SDNControllerNodes returns the SDN controller container, if any
func (c *EmulationEnvConfig) SDNControllerNodes() []Node {
	if c == nil || c.SDNController == nil {
		return nil
	}
	return singleNode(c.SDNController.Container)
}

// TrafficNodes returns the nodes generating internal traffic
func (c *EmulationEnvConfig) TrafficNodes() []Node {
	if c == nil || c.Traffic == nil {
		return nil
	}
	nodes := make([]Node, 0, len(c.Traffic.NodeTrafficConfigs))
	for _, t := range c.Traffic.NodeTrafficConfigs {
		nodes = append(nodes, Node{IP: t.IP, DockerGwBridgeIP: t.DockerGwBridgeIP, PhysicalHostIP: t.PhysicalHostIP})
	}
	return nodes
}

// ClientPopulationNodes returns the client population host, if any
func (c *EmulationEnvConfig) ClientPopulationNodes() []Node {
	if c == nil || c.Traffic == nil || c.Traffic.ClientPopulation == nil {
		return nil
	}
	p := c.Traffic.ClientPopulation
	return []Node{{IP: p.IP, DockerGwBridgeIP: p.DockerGwBridgeIP, PhysicalHostIP: p.PhysicalHostIP}}
}

// KafkaIP returns the primary IP of the Kafka container, or ""
func (c *EmulationEnvConfig) KafkaIP() string {
	if c == nil || c.Kafka == nil || c.Kafka.Container == nil {
		return ""
	}
	return c.Kafka.Container.PrimaryIP()
}

// ElkIP returns the primary IP of the Elk container, or ""
func (c *EmulationEnvConfig) ElkIP() string {
	if c == nil || c.Elk == nil || c.Elk.Container == nil {
		return ""
	}
	return c.Elk.Container.PrimaryIP()
}

// FindNode returns the node with the given IP
func FindNode(nodes []Node, ip string) (Node, bool) {
	for _, n := range nodes {
		if n.IP == ip {
			return n, true
		}
	}
	return Node{}, false
}

// appendNode adds n unless a node with the same IP is already present
func appendNode(nodes []Node, n Node) []Node {
	if _, ok := FindNode(nodes, n.IP); ok {
		return nodes
	}
	return append(nodes, n)
}

// UsersNodes returns the nodes with a users config
func (c *EmulationEnvConfig) UsersNodes() []Node {
	if c == nil || c.Users == nil {
		return nil
	}
	var nodes []Node
	for _, u := range c.Users.Nodes {
		nodes = appendNode(nodes, Node{IP: u.IP, DockerGwBridgeIP: u.DockerGwBridgeIP, PhysicalHostIP: u.PhysicalHostIP})
	}
	return nodes
}

// VulnerabilityNodes returns the nodes with at least one vulnerability
func (c *EmulationEnvConfig) VulnerabilityNodes() []Node {
	if c == nil || c.Vulnerabilities == nil {
		return nil
	}
	var nodes []Node
	for _, v := range c.Vulnerabilities.Nodes {
		nodes = appendNode(nodes, Node{IP: v.IP, DockerGwBridgeIP: v.DockerGwBridgeIP, PhysicalHostIP: v.PhysicalHostIP})
	}
	return nodes
}

// FlagsNodes returns the nodes with flags
func (c *EmulationEnvConfig) FlagsNodes() []Node {
	if c == nil || c.Flags == nil {
		return nil
	}
	var nodes []Node
	for _, f := range c.Flags.Nodes {
		nodes = appendNode(nodes, Node{IP: f.IP, DockerGwBridgeIP: f.DockerGwBridgeIP, PhysicalHostIP: f.PhysicalHostIP})
	}
	return nodes
}

// ResourceNodes returns the nodes with resource constraints
func (c *EmulationEnvConfig) ResourceNodes() []Node {
	if c == nil || c.ResourceConstraints == nil {
		return nil
	}
	var nodes []Node
	for _, r := range c.ResourceConstraints.Nodes {
		nodes = appendNode(nodes, Node{IP: r.IP, DockerGwBridgeIP: r.DockerGwBridgeIP, PhysicalHostIP: r.PhysicalHostIP})
	}
	return nodes
}

// OVSNodes returns the Open vSwitch containers
func (c *EmulationEnvConfig) OVSNodes() []Node {
	if c == nil || c.OVS == nil {
		return nil
	}
	var nodes []Node
	for _, s := range c.OVS.SwitchConfigs {
		nodes = appendNode(nodes, Node{IP: s.IP, DockerGwBridgeIP: s.DockerGwBridgeIP, PhysicalHostIP: s.PhysicalHostIP})
	}
	return nodes
}
