package topology

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuemby/netemu/pkg/firewall"
	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/metrics"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/rs/zerolog"
)

// Controller realizes the firewall, routes and /etc/hosts of the nodes
// owned by this host
type Controller struct {
	dialer sshexec.Dialer
	guard  ownership.Guard
	fanout ownership.FanOut
	logger zerolog.Logger
}

// NewController creates a topology controller
func NewController(dialer sshexec.Dialer, guard ownership.Guard, fanout ownership.FanOut) *Controller {
	return &Controller{
		dialer: dialer,
		guard:  guard,
		fanout: fanout,
		logger: log.WithComponent("topology"),
	}
}

// CreateTopology applies the plan of every owned node. Nodes are applied
// concurrently; the commands of one node run strictly in order. Re-running
// resets each node to the declared state.
func (c *Controller) CreateTopology(ctx context.Context, exec *types.Execution) error {
	if exec.Config == nil || exec.Config.Topology == nil {
		return nil
	}
	nodes := exec.Config.Topology.NodeConfigs
	owned := ownership.Local(c.guard, nodes)
	logger := log.WithExecution(c.logger, exec.EmulationName, exec.IPFirstOctet)
	logger.Info().Int("nodes", len(owned)).Msg("Creating topology")

	return ownership.ForEach(ctx, c.fanout, "topology", owned, func(ctx context.Context, node *types.NodeFirewallConfig) error {
		return c.ApplyNode(ctx, node, nodes)
	})
}

// ApplyNode applies the plan of a single node, which must be owned by this
// host
func (c *Controller) ApplyNode(ctx context.Context, node *types.NodeFirewallConfig, peers []*types.NodeFirewallConfig) error {
	if !c.guard.IsLocal(node) {
		return nil
	}

	plan, err := firewall.Compile(node, peers)
	if err != nil {
		return fmt.Errorf("invalid firewall config of %s: %w", node.PrimaryIP(), err)
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TopologyApplyDuration)

	logger := log.WithNode(c.logger, node.PrimaryIP())
	session, err := c.dialer.Dial(ctx, node.DockerGwBridgeIP)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", node.PrimaryIP(), err)
	}
	defer session.Close()

	for _, step := range plan.Steps {
		cmd := step.Render()
		logger.Debug().Str("cmd", cmd).Msg("Applying")
		if _, err := session.Run(ctx, cmd); err != nil {
			if routeExists(step, err) {
				continue
			}
			logger.Error().Err(err).Str("cmd", cmd).Msg("Topology command failed")
			return fmt.Errorf("node %s: %w", node.PrimaryIP(), err)
		}
	}

	logger.Info().Int("commands", len(plan.Steps)).Msg("Topology applied")
	return nil
}

// routeExists reports a route step rejected because the route is already
// installed, which happens when a node is reconfigured
func routeExists(step firewall.Step, err error) bool {
	switch step.(type) {
	case firewall.Route, firewall.SubnetRoute:
	default:
		return false
	}
	var cmdErr *sshexec.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(cmdErr.Stderr, "File exists")
}
