package traffic

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/rs/zerolog"
)

// ScriptPath is where the traffic generator script is written on each node
const ScriptPath = "/traffic_generator.sh"

// ErrNoTrafficConfig is returned for nodes without a traffic config
var ErrNoTrafficConfig = errors.New("no traffic config for node")

// Controller manages the traffic and client managers of an execution and
// the traffic they generate
type Controller struct {
	dialer   sshexec.Dialer
	launcher *services.Launcher
	sidecars *sidecar.Connector
	guard    ownership.Guard
	fanout   ownership.FanOut
	logger   zerolog.Logger
}

// NewController creates a traffic controller
func NewController(dialer sshexec.Dialer, launcher *services.Launcher, sidecars *sidecar.Connector, guard ownership.Guard, fanout ownership.FanOut) *Controller {
	return &Controller{
		dialer:   dialer,
		launcher: launcher,
		sidecars: sidecars,
		guard:    guard,
		fanout:   fanout,
		logger:   log.WithComponent("traffic"),
	}
}

func (c *Controller) nodeLogger(exec *types.Execution, ip string) zerolog.Logger {
	return log.WithNode(log.WithExecution(c.logger, exec.EmulationName, exec.IPFirstOctet), ip)
}

func trafficConfig(exec *types.Execution, n types.Node) (*types.NodeTrafficConfig, error) {
	if exec.Config == nil || exec.Config.Traffic == nil {
		return nil, ErrNoTrafficConfig
	}
	cfg := exec.Config.Traffic.Node(n.IP)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTrafficConfig, n.IP)
	}
	return cfg, nil
}

// StartTrafficManagers starts the traffic manager of every owned node
func (c *Controller) StartTrafficManagers(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, exec.Config.TrafficNodes())
	return ownership.ForEach(ctx, c.fanout, "traffic-manager", owned, func(ctx context.Context, n types.Node) error {
		return c.StartTrafficManager(ctx, exec, n)
	})
}

// StopTrafficManagers stops the traffic manager of every owned node
func (c *Controller) StopTrafficManagers(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, exec.Config.TrafficNodes())
	return ownership.ForEach(ctx, c.fanout, "traffic-manager", owned, func(ctx context.Context, n types.Node) error {
		return c.StopTrafficManager(ctx, exec, n)
	})
}

// StartTrafficManager starts the traffic manager of n unless it already runs
func (c *Controller) StartTrafficManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	cfg, err := trafficConfig(exec, n)
	if err != nil {
		return err
	}
	if _, err := c.launcher.Ensure(ctx, n.DockerGwBridgeIP, services.TrafficManager(cfg)); err != nil {
		return fmt.Errorf("failed to start traffic manager on %s: %w", n.IP, err)
	}
	return nil
}

// StopTrafficManager stops the traffic manager of n
func (c *Controller) StopTrafficManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	cfg, err := trafficConfig(exec, n)
	if err != nil {
		return err
	}
	if err := c.launcher.Stop(ctx, n.DockerGwBridgeIP, services.TrafficManager(cfg)); err != nil {
		return fmt.Errorf("failed to stop traffic manager on %s: %w", n.IP, err)
	}
	return nil
}

func (c *Controller) trafficManager(ctx context.Context, exec *types.Execution, n types.Node) (*sidecar.TrafficManager, error) {
	cfg, err := trafficConfig(exec, n)
	if err != nil {
		return nil, err
	}
	p := services.TrafficManager(cfg)
	if _, err := c.launcher.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, err
	}
	return c.sidecars.TrafficManager(ctx, n.AdminIP(), p.Port)
}

// StartInternalTrafficGenerators starts the generator of every owned node
func (c *Controller) StartInternalTrafficGenerators(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, exec.Config.TrafficNodes())
	return ownership.ForEach(ctx, c.fanout, "traffic-generator", owned, func(ctx context.Context, n types.Node) error {
		return c.StartTrafficGenerator(ctx, exec, n)
	})
}

// StopInternalTrafficGenerators stops the generator of every owned node
func (c *Controller) StopInternalTrafficGenerators(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, exec.Config.TrafficNodes())
	return ownership.ForEach(ctx, c.fanout, "traffic-generator", owned, func(ctx context.Context, n types.Node) error {
		return c.StopTrafficGenerator(ctx, exec, n)
	})
}

// StartTrafficGenerator runs the generator script of n through its traffic
// manager
func (c *Controller) StartTrafficGenerator(ctx context.Context, exec *types.Execution, n types.Node) error {
	tm, err := c.trafficManager(ctx, exec, n)
	if err != nil {
		return fmt.Errorf("failed to start traffic generator on %s: %w", n.IP, err)
	}
	defer tm.Close()
	if _, err := tm.StartTraffic(ctx); err != nil {
		return fmt.Errorf("failed to start traffic generator on %s: %w", n.IP, err)
	}
	logger := c.nodeLogger(exec, n.IP)
	logger.Info().Msg("Traffic generator started")
	return nil
}

// StopTrafficGenerator stops the generator of n
func (c *Controller) StopTrafficGenerator(ctx context.Context, exec *types.Execution, n types.Node) error {
	tm, err := c.trafficManager(ctx, exec, n)
	if err != nil {
		return fmt.Errorf("failed to stop traffic generator on %s: %w", n.IP, err)
	}
	defer tm.Close()
	if _, err := tm.StopTraffic(ctx); err != nil {
		return fmt.Errorf("failed to stop traffic generator on %s: %w", n.IP, err)
	}
	return nil
}

// CreateInternalTrafficGeneratorScripts writes the generator script of
// every owned node
func (c *Controller) CreateInternalTrafficGeneratorScripts(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, exec.Config.TrafficNodes())
	return ownership.ForEach(ctx, c.fanout, "traffic-generator", owned, func(ctx context.Context, n types.Node) error {
		return c.WriteGeneratorScript(ctx, exec, n)
	})
}

// WriteGeneratorScript compiles the commands of the peers of n into a
// looping script and writes it to the node
func (c *Controller) WriteGeneratorScript(ctx context.Context, exec *types.Execution, n types.Node) error {
	cfg, err := trafficConfig(exec, n)
	if err != nil {
		return err
	}
	cmds := GeneratorCommands(exec.Config, cfg)

	session, err := c.dialer.Dial(ctx, n.DockerGwBridgeIP)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", n.IP, err)
	}
	defer session.Close()

	if err := session.WriteFile(ctx, ScriptPath, []byte(Script(cmds)), 0o777); err != nil {
		return fmt.Errorf("failed to write traffic script on %s: %w", n.IP, err)
	}
	logger := c.nodeLogger(exec, n.IP)
	logger.Debug().Int("commands", len(cmds)).Msg("Traffic generator script written")
	return nil
}

// TrafficManagersInfo queries the traffic manager of every node
func (c *Controller) TrafficManagersInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.TrafficManagerStatus] {
	nodes := exec.Config.TrafficNodes()
	info := sidecar.Aggregate(ctx, c.fanout, "traffic-manager", exec, nodes, 0,
		func(ctx context.Context, n types.Node) (*types.TrafficManagerStatus, error) {
			cfg, err := trafficConfig(exec, n)
			if err != nil {
				return nil, err
			}
			tm, err := c.sidecars.TrafficManager(ctx, n.AdminIP(), cfg.TrafficManagerPort)
			if err != nil {
				return nil, err
			}
			defer tm.Close()
			return tm.Status(ctx)
		})
	for i, n := range nodes {
		if cfg := exec.Config.Traffic.Node(n.IP); cfg != nil {
			info.Ports[i] = cfg.TrafficManagerPort
		}
	}
	return info
}
