package ovs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/digitalocean/go-openvswitch/ovs"
	"github.com/rs/zerolog"
)

// DefaultBridge is used for switches that do not name their bridge
const DefaultBridge = "ovsbr1"

// Controller configures the Open vSwitch instances running inside switch
// containers owned by this host
type Controller struct {
	dialer sshexec.Dialer
	guard  ownership.Guard
	fanout ownership.FanOut
	logger zerolog.Logger
}

// NewController creates a switch controller
func NewController(dialer sshexec.Dialer, guard ownership.Guard, fanout ownership.FanOut) *Controller {
	return &Controller{
		dialer: dialer,
		guard:  guard,
		fanout: fanout,
		logger: log.WithComponent("ovs"),
	}
}

// client returns an OVS client whose commands run in the switch container
// over session
func client(ctx context.Context, session sshexec.Session) *ovs.Client {
	return ovs.New(ovs.Exec(func(cmd string, args ...string) ([]byte, error) {
		res, err := session.Run(ctx, shellJoin(cmd, args...))
		if err != nil {
			return nil, err
		}
		return []byte(res.Stdout), nil
	}))
}

func switches(exec *types.Execution) []*types.OVSSwitchConfig {
	if exec.Config == nil || exec.Config.OVS == nil {
		return nil
	}
	return exec.Config.OVS.SwitchConfigs
}

// ErrUnknownSwitch is returned for nodes that are not switches of the
// execution
var ErrUnknownSwitch = errors.New("unknown switch")

func lookup(exec *types.Execution, ip string) (*types.OVSSwitchConfig, error) {
	for _, sw := range switches(exec) {
		if sw.IP == ip {
			return sw, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSwitch, ip)
}

// CreateSwitches creates the bridge of every owned switch
func (c *Controller) CreateSwitches(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, switches(exec))
	return ownership.ForEach(ctx, c.fanout, "ovs", owned, func(ctx context.Context, sw *types.OVSSwitchConfig) error {
		return c.createSwitch(ctx, sw)
	})
}

// CreateSwitch creates the bridge of the switch n
func (c *Controller) CreateSwitch(ctx context.Context, exec *types.Execution, n types.Node) error {
	sw, err := lookup(exec, n.IP)
	if err != nil {
		return err
	}
	return c.createSwitch(ctx, sw)
}

func (c *Controller) createSwitch(ctx context.Context, sw *types.OVSSwitchConfig) error {
	return c.withSwitch(ctx, sw, func(cl *ovs.Client) error {
		if err := cl.VSwitch.AddBridge(bridgeName(sw)); err != nil {
			return fmt.Errorf("failed to add bridge on %s: %w", sw.ContainerName, err)
		}
		return nil
	})
}

// ConfigureSwitches sets the OpenFlow protocols and the SDN controller of
// every owned switch
func (c *Controller) ConfigureSwitches(ctx context.Context, exec *types.Execution) error {
	owned := ownership.Local(c.guard, switches(exec))
	return ownership.ForEach(ctx, c.fanout, "ovs", owned, func(ctx context.Context, sw *types.OVSSwitchConfig) error {
		return c.configureSwitch(ctx, sw)
	})
}

// ConfigureSwitch configures the switch n
func (c *Controller) ConfigureSwitch(ctx context.Context, exec *types.Execution, n types.Node) error {
	sw, err := lookup(exec, n.IP)
	if err != nil {
		return err
	}
	return c.configureSwitch(ctx, sw)
}

func (c *Controller) configureSwitch(ctx context.Context, sw *types.OVSSwitchConfig) error {
	return c.withSwitch(ctx, sw, func(cl *ovs.Client) error {
		bridge := bridgeName(sw)
		if len(sw.OpenFlowProtocols) > 0 {
			if err := cl.VSwitch.Set.Bridge(bridge, ovs.BridgeOptions{Protocols: sw.OpenFlowProtocols}); err != nil {
				return fmt.Errorf("failed to set protocols on %s: %w", sw.ContainerName, err)
			}
		}
		if sw.ControllerIP == "" {
			return nil
		}
		if err := cl.VSwitch.SetController(bridge, controllerTarget(sw)); err != nil {
			return fmt.Errorf("failed to set controller on %s: %w", sw.ContainerName, err)
		}
		return nil
	})
}

func (c *Controller) withSwitch(ctx context.Context, sw *types.OVSSwitchConfig, fn func(cl *ovs.Client) error) error {
	logger := log.WithNode(c.logger, sw.IP)
	session, err := c.dialer.Dial(ctx, sw.DockerGwBridgeIP)
	if err != nil {
		return fmt.Errorf("failed to connect to switch %s: %w", sw.ContainerName, err)
	}
	defer session.Close()

	if err := fn(client(ctx, session)); err != nil {
		logger.Error().Err(err).Msg("Switch configuration failed")
		return err
	}
	logger.Debug().Str("container", sw.ContainerName).Msg("Switch configured")
	return nil
}

func bridgeName(sw *types.OVSSwitchConfig) string {
	if sw.Bridge != "" {
		return sw.Bridge
	}
	return DefaultBridge
}

func controllerTarget(sw *types.OVSSwitchConfig) string {
	transport := sw.ControllerTransport
	if transport == "" {
		transport = "tcp"
	}
	port := sw.ControllerPort
	if port == 0 {
		port = 6653
	}
	return fmt.Sprintf("%s:%s:%d", transport, sw.ControllerIP, port)
}

// shellJoin renders argv as a shell command line
func shellJoin(cmd string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, cmd)
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_.,:=/@+", r))
	}) == -1 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
