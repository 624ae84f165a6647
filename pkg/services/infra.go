package services

import (
	"context"

	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/types"
)

func (c *Controller) kafkaManager(ctx context.Context, exec *types.Execution, n types.Node) (*sidecar.KafkaManager, error) {
	if err := configured(exec); err != nil {
		return nil, err
	}
	if exec.Config.Kafka == nil {
		return nil, ErrNotConfigured
	}
	p := KafkaManager(exec.Config)
	if _, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, err
	}
	return c.sidecars.KafkaManager(ctx, n.AdminIP(), p.Port)
}

// StartKafkaManager starts the Kafka manager of n
func (c *Controller) StartKafkaManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	_, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, KafkaManager(exec.Config))
	return wrap("start kafka manager", n, err)
}

// StopKafkaManager stops the Kafka manager of n
func (c *Controller) StopKafkaManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	return wrap("stop kafka manager", n, c.remote.Stop(ctx, n.DockerGwBridgeIP, KafkaManager(exec.Config)))
}

// StartKafka starts the Kafka broker on n unless it already runs
func (c *Controller) StartKafka(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.kafkaManager(ctx, exec, n)
	if err != nil {
		return wrap("start kafka", n, err)
	}
	defer m.Close()
	return wrap("start kafka", n, c.startKafka(ctx, m))
}

func (c *Controller) startKafka(ctx context.Context, m *sidecar.KafkaManager) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if status.Running {
		return nil
	}
	if _, err := m.StartKafka(ctx); err != nil {
		return err
	}
	return sleep(ctx, c.remote.settle)
}

// StopKafka stops the Kafka broker on n
func (c *Controller) StopKafka(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.kafkaManager(ctx, exec, n)
	if err != nil {
		return wrap("stop kafka", n, err)
	}
	defer m.Close()
	_, err = m.StopKafka(ctx)
	return wrap("stop kafka", n, err)
}

// ApplyKafkaConfig starts the broker and creates every configured topic
// that does not exist yet
func (c *Controller) ApplyKafkaConfig(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.kafkaManager(ctx, exec, n)
	if err != nil {
		return wrap("apply kafka config", n, err)
	}
	defer m.Close()

	if err := c.startKafka(ctx, m); err != nil {
		return wrap("apply kafka config", n, err)
	}
	status, err := m.Status(ctx)
	if err != nil {
		return wrap("apply kafka config", n, err)
	}
	existing := make(map[string]bool, len(status.Topics))
	for _, t := range status.Topics {
		existing[t] = true
	}

	logger := c.nodeLogger(exec, n)
	for _, t := range exec.Config.Kafka.Topics {
		if existing[t.Name] {
			continue
		}
		req := &sidecar.CreateTopicRequest{Name: t.Name, Partitions: t.Partitions, Replicas: t.Replicas, RetentionH: t.RetentionH}
		if _, err := m.CreateTopic(ctx, req); err != nil {
			return wrap("create topic "+t.Name, n, err)
		}
		logger.Info().Str("topic", t.Name).Msg("Kafka topic created")
	}
	return nil
}

func (c *Controller) elkManager(ctx context.Context, exec *types.Execution, n types.Node) (*sidecar.ElkManager, error) {
	if err := configured(exec); err != nil {
		return nil, err
	}
	if exec.Config.Elk == nil {
		return nil, ErrNotConfigured
	}
	p := ElkManager(exec.Config)
	if _, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, err
	}
	return c.sidecars.ElkManager(ctx, n.AdminIP(), p.Port)
}

// StartElkManager starts the Elk manager of n
func (c *Controller) StartElkManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	_, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, ElkManager(exec.Config))
	return wrap("start elk manager", n, err)
}

// StopElkManager stops the Elk manager of n
func (c *Controller) StopElkManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	return wrap("stop elk manager", n, c.remote.Stop(ctx, n.DockerGwBridgeIP, ElkManager(exec.Config)))
}

// StartElkStack starts elasticsearch, logstash and kibana on n
func (c *Controller) StartElkStack(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.elkManager(ctx, exec, n)
	if err != nil {
		return wrap("start elk stack", n, err)
	}
	defer m.Close()

	status, err := m.Status(ctx)
	if err != nil {
		return wrap("start elk stack", n, err)
	}
	if status.ElasticRunning && status.KibanaRunning && status.LogstashRunning {
		return nil
	}
	_, err = m.StartElk(ctx)
	return wrap("start elk stack", n, err)
}

// StopElkStack stops the Elk stack on n
func (c *Controller) StopElkStack(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.elkManager(ctx, exec, n)
	if err != nil {
		return wrap("stop elk stack", n, err)
	}
	defer m.Close()
	_, err = m.StopElk(ctx)
	return wrap("stop elk stack", n, err)
}

func (c *Controller) sdnController(ctx context.Context, exec *types.Execution, n types.Node) (*sidecar.SDNController, error) {
	if err := configured(exec); err != nil {
		return nil, err
	}
	if exec.Config.SDNController == nil {
		return nil, ErrNotConfigured
	}
	p := SDNControllerManager(exec.Config)
	if _, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, err
	}
	return c.sidecars.SDNController(ctx, n.AdminIP(), p.Port)
}

// StartSDNController starts the controller application on n
func (c *Controller) StartSDNController(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.sdnController(ctx, exec, n)
	if err != nil {
		return wrap("start sdn controller", n, err)
	}
	defer m.Close()

	status, err := m.Status(ctx)
	if err != nil {
		return wrap("start sdn controller", n, err)
	}
	if status.ControllerRunning {
		return nil
	}
	sdn := exec.Config.SDNController
	_, err = m.StartController(ctx, &sidecar.SDNControllerStartRequest{
		Module:  sdn.ControllerModule,
		Port:    sdn.ControllerPort,
		WebPort: sdn.ControllerWebPort,
	})
	if err == nil {
		logger := c.nodeLogger(exec, n)
		logger.Info().Str("module", sdn.ControllerModule).Msg("SDN controller started")
	}
	return wrap("start sdn controller", n, err)
}

// StopSDNController stops the controller application and its manager on n
func (c *Controller) StopSDNController(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	return wrap("stop sdn controller", n, c.remote.Stop(ctx, n.DockerGwBridgeIP, SDNControllerManager(exec.Config)))
}

// StartSDNMonitor starts the flow statistics monitor of the SDN controller
func (c *Controller) StartSDNMonitor(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.sdnController(ctx, exec, n)
	if err != nil {
		return wrap("start sdn monitor", n, err)
	}
	defer m.Close()

	status, err := m.Status(ctx)
	if err != nil {
		return wrap("start sdn monitor", n, err)
	}
	if status.MonitorRunning {
		return nil
	}
	_, err = m.StartMonitor(ctx, kafkaTarget(exec.Config, exec.Config.SDNController.Manager.TimeStepLenSeconds))
	return wrap("start sdn monitor", n, err)
}

// StopSDNMonitor stops the flow statistics monitor of the SDN controller
func (c *Controller) StopSDNMonitor(ctx context.Context, exec *types.Execution, n types.Node) error {
	m, err := c.sdnController(ctx, exec, n)
	if err != nil {
		return wrap("stop sdn monitor", n, err)
	}
	defer m.Close()
	_, err = m.StopMonitor(ctx)
	return wrap("stop sdn monitor", n, err)
}

// StartDockerStatsManager starts the docker stats manager on the physical
// host n
func (c *Controller) StartDockerStatsManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	_, err := c.local.Ensure(ctx, n.DockerGwBridgeIP, DockerStatsManager(exec.Config))
	return wrap("start docker stats manager", n, err)
}

// StopDockerStatsManager stops the docker stats manager on the physical
// host n
func (c *Controller) StopDockerStatsManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	return wrap("stop docker stats manager", n, c.local.Stop(ctx, n.DockerGwBridgeIP, DockerStatsManager(exec.Config)))
}

func (c *Controller) statsRequest(exec *types.Execution) *sidecar.DockerStatsMonitorRequest {
	timeStep := 0
	if exec.Config != nil && exec.Config.DockerStatsManager != nil {
		timeStep = exec.Config.DockerStatsManager.TimeStepLenSeconds
	}
	return &sidecar.DockerStatsMonitorRequest{
		Emulation:    exec.EmulationName,
		IPFirstOctet: exec.IPFirstOctet,
		KafkaTarget:  *kafkaTarget(exec.Config, timeStep),
	}
}

// StartDockerStatsMonitor starts the container stats monitor of the
// execution on the physical host n
func (c *Controller) StartDockerStatsMonitor(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	p := DockerStatsManager(exec.Config)
	if _, err := c.local.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return wrap("start docker stats monitor", n, err)
	}
	m, err := c.sidecars.DockerStatsManager(ctx, n.AdminIP(), p.Port)
	if err != nil {
		return wrap("start docker stats monitor", n, err)
	}
	defer m.Close()
	_, err = m.StartMonitor(ctx, c.statsRequest(exec))
	return wrap("start docker stats monitor", n, err)
}

// StopDockerStatsMonitor stops the container stats monitor of the
// execution on the physical host n
func (c *Controller) StopDockerStatsMonitor(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	p := DockerStatsManager(exec.Config)
	m, err := c.sidecars.DockerStatsManager(ctx, n.AdminIP(), p.Port)
	if err != nil {
		return wrap("stop docker stats monitor", n, err)
	}
	defer m.Close()
	_, err = m.StopMonitor(ctx, c.statsRequest(exec))
	return wrap("stop docker stats monitor", n, err)
}
