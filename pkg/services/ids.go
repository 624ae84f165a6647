package services

import (
	"context"

	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/types"
)

// IDS selects an intrusion detection system
type IDS int

const (
	Snort IDS = iota
	OSSEC
)

func (k IDS) String() string {
	if k == OSSEC {
		return "ossec"
	}
	return "snort"
}

func (k IDS) controller() string {
	return k.String() + "-ids-manager"
}

func (k IDS) process(cfg *types.EmulationEnvConfig) Process {
	if k == OSSEC {
		return OSSECIDSManager(cfg)
	}
	return SnortIDSManager(cfg)
}

// Nodes returns the containers running the IDS
func (k IDS) Nodes(cfg *types.EmulationEnvConfig) []types.Node {
	if k == OSSEC {
		return cfg.OSSECIDSNodes()
	}
	return cfg.SnortIDSNodes()
}

func (k IDS) timeStep(cfg *types.EmulationEnvConfig) int {
	if cfg == nil {
		return 0
	}
	m := cfg.SnortIDSManager
	if k == OSSEC {
		m = cfg.OSSECIDSManager
	}
	if m == nil {
		return 0
	}
	return m.TimeStepLenSeconds
}

func (c *Controller) idsClient(ctx context.Context, kind IDS, ip string, port int) (*sidecar.IDSManager, error) {
	if kind == OSSEC {
		return c.sidecars.OSSECIDSManager(ctx, ip, port)
	}
	return c.sidecars.SnortIDSManager(ctx, ip, port)
}

func (c *Controller) idsManager(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) (*sidecar.IDSManager, error) {
	if err := configured(exec); err != nil {
		return nil, err
	}
	p := kind.process(exec.Config)
	if _, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, err
	}
	return c.idsClient(ctx, kind, n.AdminIP(), p.Port)
}

// StartIDSManager starts the IDS manager of n
func (c *Controller) StartIDSManager(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	_, err := c.remote.Ensure(ctx, n.DockerGwBridgeIP, kind.process(exec.Config))
	return wrap("start "+kind.controller(), n, err)
}

// StopIDSManager stops the IDS manager of n
func (c *Controller) StopIDSManager(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) error {
	if err := configured(exec); err != nil {
		return err
	}
	return wrap("stop "+kind.controller(), n, c.remote.Stop(ctx, n.DockerGwBridgeIP, kind.process(exec.Config)))
}

// StartIDS starts the IDS on n unless it already runs
func (c *Controller) StartIDS(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) error {
	m, err := c.idsManager(ctx, exec, kind, n)
	if err != nil {
		return wrap("start "+kind.String(), n, err)
	}
	defer m.Close()

	status, err := m.Status(ctx)
	if err != nil {
		return wrap("start "+kind.String(), n, err)
	}
	if status.IDSRunning {
		return nil
	}
	_, err = m.StartIDS(ctx)
	if err == nil {
		logger := c.nodeLogger(exec, n)
		logger.Info().Str("ids", kind.String()).Msg("IDS started")
	}
	return wrap("start "+kind.String(), n, err)
}

// StopIDS stops the IDS on n
func (c *Controller) StopIDS(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) error {
	m, err := c.idsManager(ctx, exec, kind, n)
	if err != nil {
		return wrap("stop "+kind.String(), n, err)
	}
	defer m.Close()
	_, err = m.StopIDS(ctx)
	return wrap("stop "+kind.String(), n, err)
}

// StartIDSMonitor starts the alert monitor thread of the IDS manager of n
func (c *Controller) StartIDSMonitor(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) error {
	m, err := c.idsManager(ctx, exec, kind, n)
	if err != nil {
		return wrap("start "+kind.String()+" monitor", n, err)
	}
	defer m.Close()

	status, err := m.Status(ctx)
	if err != nil {
		return wrap("start "+kind.String()+" monitor", n, err)
	}
	if status.MonitorRunning {
		return nil
	}
	_, err = m.StartMonitor(ctx, kafkaTarget(exec.Config, kind.timeStep(exec.Config)))
	return wrap("start "+kind.String()+" monitor", n, err)
}

// StopIDSMonitor stops the alert monitor thread of the IDS manager of n
func (c *Controller) StopIDSMonitor(ctx context.Context, exec *types.Execution, kind IDS, n types.Node) error {
	m, err := c.idsManager(ctx, exec, kind, n)
	if err != nil {
		return wrap("stop "+kind.String()+" monitor", n, err)
	}
	defer m.Close()
	_, err = m.StopMonitor(ctx)
	return wrap("stop "+kind.String()+" monitor", n, err)
}
