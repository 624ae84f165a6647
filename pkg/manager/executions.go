package manager

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cuemby/netemu/pkg/events"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/storage"
	"github.com/cuemby/netemu/pkg/types"
)

// markRunning flags the execution as running and records this host as
// one of its physical servers
func (m *Manager) markRunning(id types.ExecutionID) error {
	exec, err := m.store.GetExecution(id)
	if err != nil {
		return err
	}
	exec.Running = true
	if !exec.HasPhysicalServer(m.HostIP()) {
		exec.PhysicalServers = append(exec.PhysicalServers, m.HostIP())
	}
	if err := m.store.SaveExecution(exec); err != nil {
		return err
	}
	m.publish(events.EventExecutionRunning, id, "", nil)
	return nil
}

func (m *Manager) markStopped(id types.ExecutionID) error {
	exec, err := m.store.GetExecution(id)
	if err != nil {
		return err
	}
	exec.Running = false
	if err := m.store.SaveExecution(exec); err != nil {
		return err
	}
	m.publish(events.EventExecutionStopped, id, "", nil)
	return nil
}

// StopExecution stops the containers of the execution owned by this host
func (m *Manager) StopExecution(ctx context.Context, emulation string, ipFirstOctet int) types.OperationOutcome {
	return m.Dispatch(ctx, DispatchRequest{
		Controller:   ContainersController,
		Operation:    OpStop,
		Emulation:    emulation,
		IPFirstOctet: ipFirstOctet,
	})
}

// StopAllExecutions stops every execution in the metastore
func (m *Manager) StopAllExecutions(ctx context.Context) types.OperationOutcome {
	execs, err := m.store.ListExecutions()
	if err != nil {
		return failed(err)
	}
	return m.each(execs, func(exec *types.Execution) types.OperationOutcome {
		return m.StopExecution(ctx, exec.EmulationName, exec.IPFirstOctet)
	})
}

// StopAllExecutionsOfEmulation stops every execution of emulation
func (m *Manager) StopAllExecutionsOfEmulation(ctx context.Context, emulation string) types.OperationOutcome {
	execs, err := m.store.ListExecutionsByEmulation(emulation)
	if err != nil {
		return failed(err)
	}
	return m.each(execs, func(exec *types.Execution) types.OperationOutcome {
		return m.StopExecution(ctx, exec.EmulationName, exec.IPFirstOctet)
	})
}

// CleanExecution stops and removes the containers and networks of the
// execution on this host and withdraws this host from it. The record is
// deleted once no physical server is left.
func (m *Manager) CleanExecution(ctx context.Context, emulation string, ipFirstOctet int) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	exec, err := m.execution(emulation, ipFirstOctet)
	if err != nil {
		return failed(err)
	}
	logger := m.logger.With().Str("emulation", emulation).Int("ip_first_octet", ipFirstOctet).Logger()

	owned := ownership.Local(m.guard, exec.Config.ContainerNodes())
	err = ownership.ForEach(ctx, m.fanout, ContainersController, owned, func(ctx context.Context, n types.Node) error {
		name, err := containerName(exec, n.IP)
		if err != nil {
			return err
		}
		if err := m.runtime.StopContainer(ctx, name); err != nil {
			logger.Warn().Err(err).Str("container", name).Msg("Failed to stop container")
		}
		return m.runtime.RemoveContainer(ctx, name)
	})
	if err != nil {
		return failed(err)
	}
	if err := m.removeNetworks(ctx, exec); err != nil {
		return failed(err)
	}

	exec.Running = false
	exec.PhysicalServers = slices.DeleteFunc(exec.PhysicalServers, func(ip string) bool { return ip == m.HostIP() })
	if len(exec.PhysicalServers) == 0 {
		err = m.store.DeleteExecution(exec.ID())
		if errors.Is(err, storage.ErrNotFound) {
			err = nil
		}
	} else {
		err = m.store.SaveExecution(exec)
	}
	if err != nil {
		return failed(err)
	}
	logger.Info().Int("containers", len(owned)).Msg("Execution cleaned")
	m.publish(events.EventExecutionCleaned, exec.ID(), "", map[string]string{"host": m.HostIP()})
	return types.OperationOutcome{Outcome: true}
}

// CleanAllExecutions cleans every execution in the metastore
func (m *Manager) CleanAllExecutions(ctx context.Context) types.OperationOutcome {
	execs, err := m.store.ListExecutions()
	if err != nil {
		return failed(err)
	}
	return m.each(execs, func(exec *types.Execution) types.OperationOutcome {
		return m.CleanExecution(ctx, exec.EmulationName, exec.IPFirstOctet)
	})
}

// CleanAllExecutionsOfEmulation cleans every execution of emulation
func (m *Manager) CleanAllExecutionsOfEmulation(ctx context.Context, emulation string) types.OperationOutcome {
	execs, err := m.store.ListExecutionsByEmulation(emulation)
	if err != nil {
		return failed(err)
	}
	return m.each(execs, func(exec *types.Execution) types.OperationOutcome {
		return m.CleanExecution(ctx, exec.EmulationName, exec.IPFirstOctet)
	})
}

// each applies fn to every execution and joins the failures
func (m *Manager) each(execs []*types.Execution, fn func(*types.Execution) types.OperationOutcome) types.OperationOutcome {
	var errs []error
	for _, exec := range execs {
		if out := fn(exec); !out.Outcome && out.Error != "" {
			errs = append(errs, fmt.Errorf("%s: %s", exec.ID(), out.Error))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return failed(err)
	}
	return types.OperationOutcome{Outcome: true}
}

// networkDriver returns the docker driver of the execution networks:
// overlay when the execution spans several hosts
func networkDriver(exec *types.Execution) string {
	if len(exec.PhysicalServers) > 1 {
		return "overlay"
	}
	return "bridge"
}

// CreateDockerNetworks creates the networks of the execution on this host
func (m *Manager) CreateDockerNetworks(ctx context.Context, emulation string, ipFirstOctet int) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	exec, err := m.execution(emulation, ipFirstOctet)
	if err != nil {
		return failed(err)
	}
	if exec.Config == nil || exec.Config.Containers == nil {
		return types.OperationOutcome{Outcome: true}
	}
	driver := networkDriver(exec)
	for _, n := range exec.Config.Containers.Networks {
		if err := m.runtime.CreateNetwork(ctx, n, driver); err != nil {
			return failed(fmt.Errorf("network %s: %w", n.Name, err))
		}
	}
	m.publish(events.EventNetworksCreated, exec.ID(), "", map[string]string{"driver": driver})
	return types.OperationOutcome{Outcome: true}
}

// RemoveDockerNetworks removes the networks of the execution from this host
func (m *Manager) RemoveDockerNetworks(ctx context.Context, emulation string, ipFirstOctet int) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	exec, err := m.execution(emulation, ipFirstOctet)
	if err != nil {
		return failed(err)
	}
	if err := m.removeNetworks(ctx, exec); err != nil {
		return failed(err)
	}
	m.publish(events.EventNetworksRemoved, exec.ID(), "", nil)
	return types.OperationOutcome{Outcome: true}
}

func (m *Manager) removeNetworks(ctx context.Context, exec *types.Execution) error {
	if exec.Config == nil || exec.Config.Containers == nil {
		return nil
	}
	var errs []error
	for _, n := range exec.Config.Containers.Networks {
		if err := m.runtime.RemoveNetwork(ctx, n.Name); err != nil {
			errs = append(errs, fmt.Errorf("network %s: %w", n.Name, err))
		}
	}
	return errors.Join(errs...)
}
