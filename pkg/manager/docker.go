package manager

import (
	"context"

	"github.com/cuemby/netemu/pkg/types"
)

// Host-local container engine operations. They are not scoped to an
// execution and need no ownership check.

func (m *Manager) ListContainers(ctx context.Context, all bool) ([]types.ContainerDTO, error) {
	if m.runtime == nil {
		return nil, ErrNoRuntime
	}
	return m.runtime.ListContainers(ctx, all)
}

// ListRunningContainers returns the running containers of this host
func (m *Manager) ListRunningContainers(ctx context.Context) ([]types.ContainerDTO, error) {
	return m.ListContainers(ctx, false)
}

func (m *Manager) StartContainer(ctx context.Context, name string) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	return outcome(m.runtime.StartContainer(ctx, name))
}

func (m *Manager) StopContainer(ctx context.Context, name string) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	return outcome(m.runtime.StopContainer(ctx, name))
}

func (m *Manager) RemoveContainer(ctx context.Context, name string) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	return outcome(m.runtime.RemoveContainer(ctx, name))
}

// StopAllRunningContainers stops every running container of this host
func (m *Manager) StopAllRunningContainers(ctx context.Context) types.OperationOutcome {
	containers, err := m.ListRunningContainers(ctx)
	if err != nil {
		return failed(err)
	}
	for _, c := range containers {
		if err := m.runtime.StopContainer(ctx, c.Name); err != nil {
			return failed(err)
		}
	}
	return types.OperationOutcome{Outcome: true}
}

func (m *Manager) ListImages(ctx context.Context) ([]types.ImageDTO, error) {
	if m.runtime == nil {
		return nil, ErrNoRuntime
	}
	return m.runtime.ListImages(ctx)
}

func (m *Manager) RemoveImage(ctx context.Context, name string) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	return outcome(m.runtime.RemoveImage(ctx, name))
}

func (m *Manager) ListNetworks(ctx context.Context) ([]types.NetworkDTO, error) {
	if m.runtime == nil {
		return nil, ErrNoRuntime
	}
	return m.runtime.ListNetworks(ctx)
}

func (m *Manager) RemoveNetwork(ctx context.Context, name string) types.OperationOutcome {
	if m.runtime == nil {
		return failed(ErrNoRuntime)
	}
	return outcome(m.runtime.RemoveNetwork(ctx, name))
}

func outcome(err error) types.OperationOutcome {
	if err != nil {
		return failed(err)
	}
	return types.OperationOutcome{Outcome: true}
}
