package traffic

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/types"
)

// ErrNoClientPopulation is returned when the execution has no client
// population
var ErrNoClientPopulation = errors.New("no client population configured")

func population(exec *types.Execution) (*types.ClientPopulationConfig, error) {
	if exec.Config == nil || exec.Config.Traffic == nil || exec.Config.Traffic.ClientPopulation == nil {
		return nil, ErrNoClientPopulation
	}
	return exec.Config.Traffic.ClientPopulation, nil
}

// StartClientManager starts the client manager on the client population
// host unless it already runs
func (c *Controller) StartClientManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	pop, err := population(exec)
	if err != nil {
		return err
	}
	if _, err := c.launcher.Ensure(ctx, n.DockerGwBridgeIP, services.ClientManager(pop)); err != nil {
		return fmt.Errorf("failed to start client manager on %s: %w", n.IP, err)
	}
	return nil
}

// StopClientManager stops the client manager
func (c *Controller) StopClientManager(ctx context.Context, exec *types.Execution, n types.Node) error {
	pop, err := population(exec)
	if err != nil {
		return err
	}
	if err := c.launcher.Stop(ctx, n.DockerGwBridgeIP, services.ClientManager(pop)); err != nil {
		return fmt.Errorf("failed to stop client manager on %s: %w", n.IP, err)
	}
	return nil
}

func (c *Controller) clientManager(ctx context.Context, exec *types.Execution, n types.Node) (*sidecar.ClientManager, *types.ClientPopulationConfig, error) {
	pop, err := population(exec)
	if err != nil {
		return nil, nil, err
	}
	p := services.ClientManager(pop)
	if _, err := c.launcher.Ensure(ctx, n.DockerGwBridgeIP, p); err != nil {
		return nil, nil, err
	}
	cm, err := c.sidecars.ClientManager(ctx, n.AdminIP(), p.Port)
	if err != nil {
		return nil, nil, err
	}
	return cm, pop, nil
}

// StartClientPopulation (re)starts the arrival process of the client
// population. At most one client process is active: a running one is
// stopped first.
func (c *Controller) StartClientPopulation(ctx context.Context, exec *types.Execution, n types.Node) error {
	cmds := ClientCommands(exec.Config)

	cm, pop, err := c.clientManager(ctx, exec, n)
	if err != nil {
		return fmt.Errorf("failed to start client population: %w", err)
	}
	defer cm.Close()

	status, err := cm.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to query client manager: %w", err)
	}
	if status.ClientProcessActive {
		if _, err := cm.StopClients(ctx); err != nil {
			return fmt.Errorf("failed to stop active clients: %w", err)
		}
	}

	_, err = cm.StartClients(ctx, &sidecar.StartClientsRequest{
		Mu:                  pop.Mu,
		Lambda:              pop.Lambda,
		TimeStepLenSeconds:  pop.TimeStepLenSeconds,
		Commands:            cmds,
		SineModulated:       pop.SineModulated,
		TimeScalingFactor:   pop.TimeScalingFactor,
		PeriodScalingFactor: pop.PeriodScalingFactor,
	})
	if err != nil {
		return fmt.Errorf("failed to start clients: %w", err)
	}
	logger := c.nodeLogger(exec, n.IP)
	logger.Info().Int("commands", len(cmds)).Float64("lambda", pop.Lambda).Msg("Client population started")
	return nil
}

// StopClientPopulation stops the arrival process
func (c *Controller) StopClientPopulation(ctx context.Context, exec *types.Execution, n types.Node) error {
	cm, _, err := c.clientManager(ctx, exec, n)
	if err != nil {
		return fmt.Errorf("failed to stop client population: %w", err)
	}
	defer cm.Close()
	if _, err := cm.StopClients(ctx); err != nil {
		return fmt.Errorf("failed to stop clients: %w", err)
	}
	return nil
}

// StartClientProducer starts the Kafka producer of the client manager
// unless it is active
func (c *Controller) StartClientProducer(ctx context.Context, exec *types.Execution, n types.Node) error {
	cm, pop, err := c.clientManager(ctx, exec, n)
	if err != nil {
		return fmt.Errorf("failed to start client producer: %w", err)
	}
	defer cm.Close()

	status, err := cm.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to query client manager: %w", err)
	}
	if status.ProducerActive {
		return nil
	}
	target := &sidecar.KafkaTarget{KafkaIP: exec.Config.KafkaIP(), TimeStepLenSeconds: pop.ProducerTimeStepLenSeconds}
	if exec.Config.Kafka != nil {
		target.KafkaPort = exec.Config.Kafka.KafkaPort
	}
	if _, err := cm.StartProducer(ctx, target); err != nil {
		return fmt.Errorf("failed to start client producer: %w", err)
	}
	return nil
}

// StopClientProducer stops the Kafka producer of the client manager when
// it is active
func (c *Controller) StopClientProducer(ctx context.Context, exec *types.Execution, n types.Node) error {
	cm, _, err := c.clientManager(ctx, exec, n)
	if err != nil {
		return fmt.Errorf("failed to stop client producer: %w", err)
	}
	defer cm.Close()

	status, err := cm.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to query client manager: %w", err)
	}
	if !status.ProducerActive {
		return nil
	}
	if _, err := cm.StopProducer(ctx); err != nil {
		return fmt.Errorf("failed to stop client producer: %w", err)
	}
	return nil
}

// ClientManagersInfo queries the client manager of the execution
func (c *Controller) ClientManagersInfo(ctx context.Context, exec *types.Execution) types.ManagersInfo[types.ClientManagerStatus] {
	port := 0
	if pop, err := population(exec); err == nil {
		port = pop.ClientManagerPort
	}
	return sidecar.Aggregate(ctx, c.fanout, "client-manager", exec, exec.Config.ClientPopulationNodes(), port,
		func(ctx context.Context, n types.Node) (*types.ClientManagerStatus, error) {
			cm, err := c.sidecars.ClientManager(ctx, n.AdminIP(), port)
			if err != nil {
				return nil, err
			}
			defer cm.Close()
			return cm.Status(ctx)
		})
}

// NumActiveClients returns the status of the client manager, or an empty
// status when it cannot be reached
func (c *Controller) NumActiveClients(ctx context.Context, exec *types.Execution) types.ClientManagerStatus {
	info := c.ClientManagersInfo(ctx, exec)
	if len(info.Statuses) == 0 {
		return types.ClientManagerStatus{}
	}
	return info.Statuses[0]
}
