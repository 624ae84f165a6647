package manager

import (
	"context"

	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/types"
)

// info reads the execution and aggregates over it. An unknown execution
// yields the zero value and the lookup error.
func info[S any](m *Manager, emulation string, ipFirstOctet int, fn func(*types.Execution) S) (S, error) {
	exec, err := m.execution(emulation, ipFirstOctet)
	if err != nil {
		var zero S
		return zero, err
	}
	return fn(exec), nil
}

func (m *Manager) GetClientManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.ClientManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.ClientManagerStatus] {
		return m.traffic.ClientManagersInfo(ctx, exec)
	})
}

func (m *Manager) GetTrafficManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.TrafficManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.TrafficManagerStatus] {
		return m.traffic.TrafficManagersInfo(ctx, exec)
	})
}

// GetNumActiveClients returns the status of the client population. An
// unreachable client manager yields the zero status.
func (m *Manager) GetNumActiveClients(ctx context.Context, emulation string, ipFirstOctet int) (types.ClientManagerStatus, error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ClientManagerStatus {
		return m.traffic.NumActiveClients(ctx, exec)
	})
}

func (m *Manager) GetHostManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.HostManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.HostManagerStatus] {
		return m.services.HostManagersInfo(ctx, exec)
	})
}

func (m *Manager) GetSnortIDSManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.IDSManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.IDSManagerStatus] {
		return m.services.IDSManagersInfo(ctx, exec, services.Snort)
	})
}

func (m *Manager) GetOSSECIDSManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.IDSManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.IDSManagerStatus] {
		return m.services.IDSManagersInfo(ctx, exec, services.OSSEC)
	})
}

func (m *Manager) GetKafkaManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.KafkaManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.KafkaManagerStatus] {
		return m.services.KafkaManagersInfo(ctx, exec)
	})
}

func (m *Manager) GetElkManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.ElkManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.ElkManagerStatus] {
		return m.services.ElkManagersInfo(ctx, exec)
	})
}

func (m *Manager) GetSDNControllerInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.SDNControllerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.SDNControllerStatus] {
		return m.services.SDNControllerInfo(ctx, exec)
	})
}

func (m *Manager) GetDockerStatsManagersInfo(ctx context.Context, emulation string, ipFirstOctet int) (types.ManagersInfo[types.DockerStatsManagerStatus], error) {
	return info(m, emulation, ipFirstOctet, func(exec *types.Execution) types.ManagersInfo[types.DockerStatsManagerStatus] {
		return m.services.DockerStatsManagersInfo(ctx, exec)
	})
}
