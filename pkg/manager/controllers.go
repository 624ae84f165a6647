package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/types"
)

// ErrNoRuntime is returned by container operations on hosts without a
// container engine client
var ErrNoRuntime = errors.New("no container runtime")

// Controller names
const (
	ContainersController          = "containers"
	TopologyController            = "topology"
	UsersController               = "users"
	VulnerabilitiesController     = "vulnerabilities"
	FlagsController               = "flags"
	ResourceConstraintsController = "resource-constraints"
	PingController                = "ping"
	OVSController                 = "ovs"
	TrafficManagerController      = "traffic-manager"
	TrafficGeneratorController    = "traffic-generator"
	ClientManagerController       = "client-manager"
	ClientPopulationController    = "client-population"
	ClientProducerController      = "client-producer"
	HostManagerController         = "host-manager"
	HostMonitorController         = "host-monitor"
	SnortIDSManagerController     = "snort-ids-manager"
	SnortIDSController            = "snort-ids"
	SnortIDSMonitorController     = "snort-ids-monitor"
	OSSECIDSManagerController     = "ossec-ids-manager"
	OSSECIDSController            = "ossec-ids"
	OSSECIDSMonitorController     = "ossec-ids-monitor"
	KafkaManagerController        = "kafka-manager"
	KafkaController               = "kafka"
	ElkManagerController          = "elk-manager"
	ElkStackController            = "elk-stack"
	SDNControllerController       = "sdn-controller"
	SDNControllerMonitorControl   = "sdn-controller-monitor"
	DockerStatsManagerController  = "docker-stats-manager"
	DockerStatsMonitorController  = "docker-stats-monitor"
)

func firewallNodes(exec *types.Execution) []types.Node {
	if exec.Config == nil || exec.Config.Topology == nil {
		return nil
	}
	nodes := make([]types.Node, 0, len(exec.Config.Topology.NodeConfigs))
	for _, n := range exec.Config.Topology.NodeConfigs {
		nodes = append(nodes, types.Node{IP: n.PrimaryIP(), DockerGwBridgeIP: n.DockerGwBridgeIP, PhysicalHostIP: n.PhysicalHostIP})
	}
	return nodes
}

func containerNodes(exec *types.Execution) []types.Node { return exec.Config.ContainerNodes() }

func (m *Manager) registerControllers() {
	r := m.registry

	r.Register(&FuncController{
		ID:             ContainersController,
		TargetsFunc:    containerNodes,
		StartFunc:      m.startContainer,
		StopFunc:       m.stopContainer,
		AfterExecution: m.afterContainers,
	})
	r.Register(&FuncController{
		ID:          TopologyController,
		TargetsFunc: firewallNodes,
		ApplyFunc: func(ctx context.Context, exec *types.Execution, n types.Node) error {
			for _, fw := range exec.Config.Topology.NodeConfigs {
				if fw.PrimaryIP() == n.IP {
					return m.topology.ApplyNode(ctx, fw, exec.Config.Topology.NodeConfigs)
				}
			}
			return nil
		},
	})
	r.Register(&FuncController{
		ID:          UsersController,
		TargetsFunc: func(exec *types.Execution) []types.Node { return exec.Config.UsersNodes() },
		ApplyFunc:   m.provision.CreateUsers,
	})
	r.Register(&FuncController{
		ID:          VulnerabilitiesController,
		TargetsFunc: func(exec *types.Execution) []types.Node { return exec.Config.VulnerabilityNodes() },
		ApplyFunc:   m.provision.CreateVulnerabilities,
	})
	r.Register(&FuncController{
		ID:          FlagsController,
		TargetsFunc: func(exec *types.Execution) []types.Node { return exec.Config.FlagsNodes() },
		ApplyFunc:   m.provision.CreateFlags,
	})
	r.Register(&FuncController{
		ID:          ResourceConstraintsController,
		TargetsFunc: func(exec *types.Execution) []types.Node { return exec.Config.ResourceNodes() },
		ApplyFunc: func(ctx context.Context, exec *types.Execution, n types.Node) error {
			if m.runtime == nil {
				return ErrNoRuntime
			}
			return m.provision.ApplyResourceConstraints(ctx, exec, n)
		},
	})
	r.Register(&FuncController{
		ID:          PingController,
		TargetsFunc: containerNodes,
		StatusFunc: func(ctx context.Context, _ *types.Execution, n types.Node) error {
			return m.provision.Ping(ctx, n)
		},
	})
	r.Register(&FuncController{
		ID:          OVSController,
		TargetsFunc: func(exec *types.Execution) []types.Node { return exec.Config.OVSNodes() },
		StartFunc:   m.ovs.CreateSwitch,
		ApplyFunc:   m.ovs.ConfigureSwitch,
	})

	m.registerTraffic()
	m.registerServices()
}

func (m *Manager) registerTraffic() {
	r := m.registry
	t := m.traffic
	trafficNodes := func(exec *types.Execution) []types.Node { return exec.Config.TrafficNodes() }
	populationNodes := func(exec *types.Execution) []types.Node { return exec.Config.ClientPopulationNodes() }

	r.Register(&FuncController{
		ID:          TrafficManagerController,
		TargetsFunc: trafficNodes,
		StartFunc:   t.StartTrafficManager,
		StopFunc:    t.StopTrafficManager,
	})
	r.Register(&FuncController{
		ID:          TrafficGeneratorController,
		TargetsFunc: trafficNodes,
		StartFunc:   t.StartTrafficGenerator,
		StopFunc:    t.StopTrafficGenerator,
		ApplyFunc:   t.WriteGeneratorScript,
	})
	r.Register(&FuncController{
		ID:          ClientManagerController,
		TargetsFunc: populationNodes,
		StartFunc:   t.StartClientManager,
		StopFunc:    t.StopClientManager,
	})
	r.Register(&FuncController{
		ID:          ClientPopulationController,
		TargetsFunc: populationNodes,
		StartFunc:   t.StartClientPopulation,
		StopFunc:    t.StopClientPopulation,
	})
	r.Register(&FuncController{
		ID:          ClientProducerController,
		TargetsFunc: populationNodes,
		StartFunc:   t.StartClientProducer,
		StopFunc:    t.StopClientProducer,
	})
}

func beatController(s *services.Controller, beat string) *FuncController {
	return &FuncController{
		ID:          beat,
		TargetsFunc: containerNodes,
		StartFunc: func(ctx context.Context, exec *types.Execution, n types.Node) error {
			return s.StartBeat(ctx, exec, n, beat)
		},
		StopFunc: func(ctx context.Context, exec *types.Execution, n types.Node) error {
			return s.StopBeat(ctx, exec, n, beat)
		},
		ApplyFunc: func(ctx context.Context, exec *types.Execution, n types.Node) error {
			return s.ApplyBeatConfig(ctx, exec, n, beat)
		},
	}
}

func idsControllers(s *services.Controller, kind services.IDS, manager, ids, monitor string) []*FuncController {
	targets := func(exec *types.Execution) []types.Node { return kind.Nodes(exec.Config) }
	with := func(fn func(context.Context, *types.Execution, services.IDS, types.Node) error) NodeFunc {
		return func(ctx context.Context, exec *types.Execution, n types.Node) error {
			return fn(ctx, exec, kind, n)
		}
	}
	return []*FuncController{
		{ID: manager, TargetsFunc: targets, StartFunc: with(s.StartIDSManager), StopFunc: with(s.StopIDSManager)},
		{ID: ids, TargetsFunc: targets, StartFunc: with(s.StartIDS), StopFunc: with(s.StopIDS)},
		{ID: monitor, TargetsFunc: targets, StartFunc: with(s.StartIDSMonitor), StopFunc: with(s.StopIDSMonitor)},
	}
}

func (m *Manager) registerServices() {
	r := m.registry
	s := m.services
	kafkaNodes := func(exec *types.Execution) []types.Node { return exec.Config.KafkaNodes() }
	elkNodes := func(exec *types.Execution) []types.Node { return exec.Config.ElkNodes() }
	sdnNodes := func(exec *types.Execution) []types.Node { return exec.Config.SDNControllerNodes() }
	// docker stats managers run on this host only
	thisHost := func(exec *types.Execution) []types.Node {
		ip := m.HostIP()
		return []types.Node{{IP: ip, DockerGwBridgeIP: ip, PhysicalHostIP: ip}}
	}

	r.Register(&FuncController{ID: HostManagerController, TargetsFunc: containerNodes, StartFunc: s.StartHostManager, StopFunc: s.StopHostManager})
	r.Register(&FuncController{ID: HostMonitorController, TargetsFunc: containerNodes, StartFunc: s.StartHostMonitor, StopFunc: s.StopHostMonitor})
	for _, beat := range services.Beats {
		r.Register(beatController(s, beat))
	}
	for _, c := range idsControllers(s, services.Snort, SnortIDSManagerController, SnortIDSController, SnortIDSMonitorController) {
		r.Register(c)
	}
	for _, c := range idsControllers(s, services.OSSEC, OSSECIDSManagerController, OSSECIDSController, OSSECIDSMonitorController) {
		r.Register(c)
	}
	r.Register(&FuncController{ID: KafkaManagerController, TargetsFunc: kafkaNodes, StartFunc: s.StartKafkaManager, StopFunc: s.StopKafkaManager})
	r.Register(&FuncController{ID: KafkaController, TargetsFunc: kafkaNodes, StartFunc: s.StartKafka, StopFunc: s.StopKafka, ApplyFunc: s.ApplyKafkaConfig})
	r.Register(&FuncController{ID: ElkManagerController, TargetsFunc: elkNodes, StartFunc: s.StartElkManager, StopFunc: s.StopElkManager})
	r.Register(&FuncController{ID: ElkStackController, TargetsFunc: elkNodes, StartFunc: s.StartElkStack, StopFunc: s.StopElkStack})
	r.Register(&FuncController{ID: SDNControllerController, TargetsFunc: sdnNodes, StartFunc: s.StartSDNController, StopFunc: s.StopSDNController})
	r.Register(&FuncController{ID: SDNControllerMonitorControl, TargetsFunc: sdnNodes, StartFunc: s.StartSDNMonitor, StopFunc: s.StopSDNMonitor})
	r.Register(&FuncController{ID: DockerStatsManagerController, TargetsFunc: thisHost, StartFunc: s.StartDockerStatsManager, StopFunc: s.StopDockerStatsManager})
	r.Register(&FuncController{ID: DockerStatsMonitorController, TargetsFunc: thisHost, StartFunc: s.StartDockerStatsMonitor, StopFunc: s.StopDockerStatsMonitor})
}

func containerName(exec *types.Execution, ip string) (string, error) {
	if exec.Config == nil {
		return "", fmt.Errorf("no container %s", ip)
	}
	c := exec.Config.Containers.Container(ip)
	if c == nil {
		return "", fmt.Errorf("no container %s", ip)
	}
	return c.Name, nil
}

func (m *Manager) startContainer(ctx context.Context, exec *types.Execution, n types.Node) error {
	if m.runtime == nil {
		return ErrNoRuntime
	}
	name, err := containerName(exec, n.IP)
	if err != nil {
		return err
	}
	return m.runtime.StartContainer(ctx, name)
}

func (m *Manager) stopContainer(ctx context.Context, exec *types.Execution, n types.Node) error {
	if m.runtime == nil {
		return ErrNoRuntime
	}
	name, err := containerName(exec, n.IP)
	if err != nil {
		return err
	}
	return m.runtime.StopContainer(ctx, name)
}

// afterContainers records the execution as running on this host once its
// containers are started
func (m *Manager) afterContainers(ctx context.Context, exec *types.Execution, op Operation) error {
	switch op {
	case OpStart:
		return m.markRunning(exec.ID())
	case OpStop:
		return m.markStopped(exec.ID())
	}
	return nil
}
