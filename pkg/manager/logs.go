package manager

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cuemby/netemu/pkg/runtime"
	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
)

// LogLines is the number of lines returned by the log operations
const LogLines = 100

var unitPattern = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)

// GetLogs returns the tail of a file on this host
func (m *Manager) GetLogs(path string) ([]string, error) {
	return runtime.TailFile(path, LogLines)
}

// GetDockerLogs returns the tail of a container's output
func (m *Manager) GetDockerLogs(ctx context.Context, container string) ([]string, error) {
	if m.runtime == nil {
		return nil, ErrNoRuntime
	}
	return m.runtime.ContainerLogs(ctx, container, LogLines)
}

// GetServiceLogs returns the journal of a systemd unit of this host. An
// unknown unit yields an empty list.
func (m *Manager) GetServiceLogs(ctx context.Context, unit string) ([]string, error) {
	if !unitPattern.MatchString(unit) {
		return nil, fmt.Errorf("invalid unit name %q", unit)
	}
	return m.tail(ctx, m.local, sshexec.LocalHost,
		fmt.Sprintf("journalctl -u %s -n %d --no-pager", unit, LogLines))
}

// GetManagerLogs returns the log of a sidecar manager. Managers on nodes
// owned by other hosts, and managers without a log file, yield an empty
// list.
func (m *Manager) GetManagerLogs(ctx context.Context, req types.ManagerLogsRequest) ([]string, error) {
	exec, err := m.execution(req.Emulation, req.IPFirstOctet)
	if err != nil {
		return nil, err
	}
	if req.Controller == DockerStatsManagerController {
		path := services.DockerStatsManager(exec.Config).LogPath()
		if path == "" {
			return []string{}, nil
		}
		return runtime.TailFile(path, LogLines)
	}

	n, ok := exec.Config.ContainerNode(req.ContainerIP)
	if !ok || !m.guard.IsLocal(n) {
		return []string{}, nil
	}
	path := managerProcess(exec.Config, req.Controller, req.ContainerIP).LogPath()
	if path == "" {
		return []string{}, nil
	}
	return m.tail(ctx, m.dialer, n.DockerGwBridgeIP, fmt.Sprintf("tail -n %d '%s'", LogLines, path))
}

func managerProcess(cfg *types.EmulationEnvConfig, controller, ip string) services.Process {
	switch controller {
	case TrafficManagerController:
		if n := cfg.Traffic.Node(ip); n != nil {
			return services.TrafficManager(n)
		}
	case ClientManagerController:
		if cfg.Traffic != nil && cfg.Traffic.ClientPopulation != nil {
			return services.ClientManager(cfg.Traffic.ClientPopulation)
		}
	case HostManagerController:
		return services.HostManager(cfg)
	case SnortIDSManagerController:
		return services.SnortIDSManager(cfg)
	case OSSECIDSManagerController:
		return services.OSSECIDSManager(cfg)
	case KafkaManagerController:
		return services.KafkaManager(cfg)
	case ElkManagerController:
		return services.ElkManager(cfg)
	case SDNControllerController:
		return services.SDNControllerManager(cfg)
	}
	return services.Process{}
}

// tail runs cmd on host and returns at most LogLines lines of its output.
// A failing command yields an empty list.
func (m *Manager) tail(ctx context.Context, dialer sshexec.Dialer, host, cmd string) ([]string, error) {
	session, err := dialer.Dial(ctx, host)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	res, err := session.Run(ctx, cmd)
	if err != nil {
		if sshexec.ExitCode(err) > 0 {
			m.logger.Debug().Err(err).Str("host", host).Msg("Log command failed")
			return []string{}, nil
		}
		return nil, err
	}
	return runtime.TailLines(strings.NewReader(res.Stdout), LogLines)
}
