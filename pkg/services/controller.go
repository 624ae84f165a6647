package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when the execution has no config for the
// requested service
var ErrNotConfigured = errors.New("service not configured in execution")

// Controller drives the monitoring and infrastructure sidecars of an
// execution
type Controller struct {
	remote   *Launcher
	local    *Launcher
	sidecars *sidecar.Connector
	guard    ownership.Guard
	fanout   ownership.FanOut
	logger   zerolog.Logger
}

// NewController creates a services controller. remote launches sidecars in
// containers, local launches the ones that run on the physical host.
func NewController(remote, local *Launcher, sidecars *sidecar.Connector, guard ownership.Guard, fanout ownership.FanOut) *Controller {
	return &Controller{
		remote:   remote,
		local:    local,
		sidecars: sidecars,
		guard:    guard,
		fanout:   fanout,
		logger:   log.WithComponent("services"),
	}
}

func (c *Controller) nodeLogger(exec *types.Execution, n types.Node) zerolog.Logger {
	return log.WithNode(log.WithExecution(c.logger, exec.EmulationName, exec.IPFirstOctet), n.IP)
}

// kafkaTarget points monitors at the Kafka container of the execution
func kafkaTarget(cfg *types.EmulationEnvConfig, timeStep int) *sidecar.KafkaTarget {
	t := &sidecar.KafkaTarget{KafkaIP: cfg.KafkaIP(), TimeStepLenSeconds: timeStep}
	if cfg.Kafka != nil {
		t.KafkaPort = cfg.Kafka.KafkaPort
	}
	return t
}

func configured(exec *types.Execution) error {
	if exec == nil || exec.Config == nil {
		return ErrNotConfigured
	}
	return nil
}

// HostManagersInfo queries the host manager of every container
func (c *Controller) HostManagersInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.HostManagerStatus] {
	p := HostManager(exec.Config)
	return sidecar.Aggregate(ctx, c.fanout, "host-manager", exec, exec.Config.ContainerNodes(), p.Port,
		func(ctx context.Context, n types.Node) (*types.HostManagerStatus, error) {
			hm, err := c.sidecars.HostManager(ctx, n.AdminIP(), p.Port)
			if err != nil {
				return nil, err
			}
			defer hm.Close()
			s, err := hm.Status(ctx)
			if err == nil && s.IP == "" {
				s.IP = n.IP
			}
			return s, err
		})
}

// IDSManagersInfo queries the IDS manager of every IDS container
func (c *Controller) IDSManagersInfo(ctx context.Context, exec *types.Execution, kind IDS) types.ManagersInfo[types.IDSManagerStatus] {
	p := kind.process(exec.Config)
	return sidecar.Aggregate(ctx, c.fanout, kind.controller(), exec, kind.Nodes(exec.Config), p.Port,
		func(ctx context.Context, n types.Node) (*types.IDSManagerStatus, error) {
			m, err := c.idsClient(ctx, kind, n.AdminIP(), p.Port)
			if err != nil {
				return nil, err
			}
			defer m.Close()
			return m.Status(ctx)
		})
}

// KafkaManagersInfo queries the Kafka manager
func (c *Controller) KafkaManagersInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.KafkaManagerStatus] {
	p := KafkaManager(exec.Config)
	return sidecar.Aggregate(ctx, c.fanout, "kafka-manager", exec, exec.Config.KafkaNodes(), p.Port,
		func(ctx context.Context, n types.Node) (*types.KafkaManagerStatus, error) {
			m, err := c.sidecars.KafkaManager(ctx, n.AdminIP(), p.Port)
			if err != nil {
				return nil, err
			}
			defer m.Close()
			return m.Status(ctx)
		})
}

// ElkManagersInfo queries the Elk manager
func (c *Controller) ElkManagersInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.ElkManagerStatus] {
	p := ElkManager(exec.Config)
	return sidecar.Aggregate(ctx, c.fanout, "elk-manager", exec, exec.Config.ElkNodes(), p.Port,
		func(ctx context.Context, n types.Node) (*types.ElkManagerStatus, error) {
			m, err := c.sidecars.ElkManager(ctx, n.AdminIP(), p.Port)
			if err != nil {
				return nil, err
			}
			defer m.Close()
			return m.Status(ctx)
		})
}

// SDNControllerInfo queries the SDN controller manager
func (c *Controller) SDNControllerInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.SDNControllerStatus] {
	p := SDNControllerManager(exec.Config)
	return sidecar.Aggregate(ctx, c.fanout, "sdn-controller", exec, exec.Config.SDNControllerNodes(), p.Port,
		func(ctx context.Context, n types.Node) (*types.SDNControllerStatus, error) {
			m, err := c.sidecars.SDNController(ctx, n.AdminIP(), p.Port)
			if err != nil {
				return nil, err
			}
			defer m.Close()
			return m.Status(ctx)
		})
}

// DockerStatsManagersInfo queries the docker stats manager of every
// physical server of the execution
func (c *Controller) DockerStatsManagersInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.DockerStatsManagerStatus] {
	p := DockerStatsManager(exec.Config)
	return sidecar.Aggregate(ctx, c.fanout, "docker-stats-manager", exec, PhysicalNodes(exec), p.Port,
		func(ctx context.Context, n types.Node) (*types.DockerStatsManagerStatus, error) {
			m, err := c.sidecars.DockerStatsManager(ctx, n.AdminIP(), p.Port)
			if err != nil {
				return nil, err
			}
			defer m.Close()
			return m.Status(ctx)
		})
}

// PhysicalNodes returns one node per physical server of the execution. The
// sidecars of these nodes run on the host itself.
func PhysicalNodes(exec *types.Execution) []types.Node {
	nodes := make([]types.Node, 0, len(exec.PhysicalServers))
	for _, ip := range exec.PhysicalServers {
		nodes = append(nodes, types.Node{IP: ip, DockerGwBridgeIP: ip, PhysicalHostIP: ip})
	}
	return nodes
}

func wrap(action string, n types.Node, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s on %s: %w", action, n.IP, err)
}
