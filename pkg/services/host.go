package services

import (
	"context"
	"fmt"

	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/types"
)

// Beats that can be configured and started through a host manager
var Beats = []string{sidecar.Filebeat, sidecar.Packetbeat, sidecar.Metricbeat, sidecar.Heartbeat}

func (c *Controller) hostManager(ctx context.Context, exec *types.Execution, n types.Node) (*sidecar.HostManager, error) {
	if err := configured(exec); err != nil {
		return nil, err
	}
	p := HostManager(exec.Config)
	if _, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, err
	}
	return c.sidecars.HostManager(ctx, n.AdminIP(), p.Port)
}

// StartHostManager starts the host manager of n
func (c *Controller) StartHostManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	_, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, HostManager(exec.Config))
	return wrap("start host manager", n, err)
}

// StopHostManager stops the host manager of n
func (c *Controller) StopHostManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	return wrap("stop host manager", n, c.remote.Stop(ctx, n.DockerGwBridgeIP, HostManager(exec.Config)))
}

// StartHostMonitor starts the monitor thread of the host manager of n
func (c *Controller) StartHostMonitor(ctx context.Context, exec *types.Execution, n types.Node) error {
	hm, err := c.hostManager(ctx, exec, n)
	if err != nil {
		return wrap("start host monitor", n, err)
	}
	defer hm.Close()

	status, err := hm.Status(ctx)
	if err != nil {
		return wrap("start host monitor", n, err)
	}
	if status.Monitor {
		return nil
	}
	timeStep := 0
	if exec.Config.HostManager != nil {
		timeStep = exec.Config.HostManager.TimeStepLenSeconds
	}
	_, err = hm.StartMonitor(ctx, kafkaTarget(exec.Config, timeStep))
	if err == nil {
		logger := c.nodeLogger(exec, n)
		logger.Info().Msg("Host monitor started")
	}
	return wrap("start host monitor", n, err)
}

// StopHostMonitor stops the monitor thread of the host manager of n
func (c *Controller) StopHostMonitor(ctx context.Context, exec *types.Execution, n types.Node) error {
	hm, err := c.hostManager(ctx, exec, n)
	if err != nil {
		return wrap("stop host monitor", n, err)
	}
	defer hm.Close()
	_, err = hm.StopMonitor(ctx)
	return wrap("stop host monitor", n, err)
}

// BeatConfig builds the config of beat on node ip. It returns nil when the
// node has no beats config.
func BeatConfig(cfg *types.EmulationEnvConfig, beat, ip string) *sidecar.BeatConfigRequest {
	b := cfg.Beats.Node(ip)
	if b == nil {
		return nil
	}
	req := &sidecar.BeatConfigRequest{
		Beat:       beat,
		KafkaInput: b.KafkaInput,
		KafkaIP:    cfg.KafkaIP(),
		ElasticIP:  cfg.ElkIP(),
		KibanaIP:   cfg.ElkIP(),
		LogstashIP: cfg.ElkIP(),
	}
	if cfg.Kafka != nil {
		req.KafkaPort = cfg.Kafka.KafkaPort
	}
	if cfg.Elk != nil {
		req.ElasticPort = cfg.Elk.ElasticPort
		req.KibanaPort = cfg.Elk.KibanaPort
		req.LogstashPort = cfg.Elk.LogstashBeatsPort
	}
	switch beat {
	case sidecar.Filebeat:
		req.LogFiles = b.LogFiles
		req.Modules = b.FilebeatModules
	case sidecar.Metricbeat:
		req.Modules = b.MetricbeatModules
	case sidecar.Heartbeat:
		req.HeartbeatHosts = b.HeartbeatHosts
	}
	return req
}

func autoStart(b *types.NodeBeatsConfig, beat string) bool {
	switch beat {
	case sidecar.Filebeat:
		return b.StartFilebeatAuto
	case sidecar.Packetbeat:
		return b.StartPacketbeatAuto
	case sidecar.Metricbeat:
		return b.StartMetricbeatAuto
	case sidecar.Heartbeat:
		return b.StartHeartbeatAuto
	}
	return false
}

func validBeat(beat string) error {
	for _, b := range Beats {
		if b == beat {
			return nil
		}
	}
	return fmt.Errorf("unknown beat %q", beat)
}

// ApplyBeatConfig renders the config of beat on n and starts the beat when
// the node asks for it. Nodes without a beats config are skipped.
func (c *Controller) ApplyBeatConfig(ctx context.Context, exec *types.Execution, n types.Node, beat string) error {
	if err := validBeat(beat); err != nil {
		return err
	}
	if err := configured(exec); err != nil {
		return err
	}
	req := BeatConfig(exec.Config, beat, n.IP)
	if req == nil {
		return nil
	}
	hm, err := c.hostManager(ctx, exec, n)
	if err != nil {
		return wrap("configure "+beat, n, err)
	}
	defer hm.Close()

	if _, err := hm.ConfigBeat(ctx, req); err != nil {
		return wrap("configure "+beat, n, err)
	}
	if autoStart(exec.Config.Beats.Node(n.IP), beat) {
		if _, err := hm.StartBeat(ctx, beat); err != nil {
			return wrap("start "+beat, n, err)
		}
	}
	logger := c.nodeLogger(exec, n)
	logger.Info().Str("beat", beat).Msg("Beat configured")
	return nil
}

// StartBeat starts beat on n
func (c *Controller) StartBeat(ctx context.Context, exec *types.Execution, n types.Node, beat string) error {
	if err := validBeat(beat); err != nil {
		return err
	}
	hm, err := c.hostManager(ctx, exec, n)
	if err != nil {
		return wrap("start "+beat, n, err)
	}
	defer hm.Close()
	_, err = hm.StartBeat(ctx, beat)
	return wrap("start "+beat, n, err)
}

// StopBeat stops beat on n
func (c *Controller) StopBeat(ctx context.Context, exec *types.Execution, n types.Node, beat string) error {
	if err := validBeat(beat); err != nil {
		return err
	}
	hm, err := c.hostManager(ctx, exec, n)
	if err != nil {
		return wrap("stop "+beat, n, err)
	}
	defer hm.Close()
	_, err = hm.StopBeat(ctx, beat)
	return wrap("stop "+beat, n, err)
}
