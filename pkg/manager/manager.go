package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/netemu/pkg/config"
	"github.com/cuemby/netemu/pkg/events"
	"github.com/cuemby/netemu/pkg/health"
	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/network"
	"github.com/cuemby/netemu/pkg/ovs"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/provision"
	"github.com/cuemby/netemu/pkg/services"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/storage"
	"github.com/cuemby/netemu/pkg/topology"
	"github.com/cuemby/netemu/pkg/traffic"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/rs/zerolog"
)

// Runtime is the container engine of this host
type Runtime interface {
	health.Pinger
	provision.Containers
	ListContainers(ctx context.Context, all bool) ([]types.ContainerDTO, error)
	StartContainer(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	ContainerLogs(ctx context.Context, name string, n int) ([]string, error)
	ListImages(ctx context.Context) ([]types.ImageDTO, error)
	RemoveImage(ctx context.Context, name string) error
	ListNetworks(ctx context.Context) ([]types.NetworkDTO, error)
	CreateNetwork(ctx context.Context, n *types.ContainerNetwork, driver string) error
	RemoveNetwork(ctx context.Context, name string) error
}

// Options holds the collaborators of a Manager
type Options struct {
	Config  *config.Config
	Store   storage.Store
	Runtime Runtime
	// Dialer reaches the emulated containers, Local runs commands on this host
	Dialer   sshexec.Dialer
	Local    sshexec.Dialer
	Sidecars *sidecar.Connector
	Shaper   network.Shaper
	// Probes overrides the local service probes of node status
	Probes []health.Probe
	Events *events.Broker
}

// Manager is the per-host control plane. It holds no execution state:
// every call reads the execution from the metastore.
type Manager struct {
	cfg      *config.Config
	store    storage.Store
	runtime  Runtime
	dialer   sshexec.Dialer
	local    sshexec.Dialer
	guard    ownership.Guard
	fanout   ownership.FanOut
	probes   []health.Probe
	registry *Registry
	events   *events.Broker

	topology  *topology.Controller
	traffic   *traffic.Controller
	services  *services.Controller
	provision *provision.Controller
	ovs       *ovs.Controller

	logger zerolog.Logger
}

// New creates a manager for the host cfg.HostIP
func New(opts Options) (*Manager, error) {
	if opts.Config == nil {
		return nil, errors.New("manager: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("manager: store is required")
	}
	if opts.Config.HostIP == "" {
		return nil, errors.New("manager: host IP is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = sshexec.NewDialer(sshexec.Config{
			User:           opts.Config.SSH.User,
			Password:       opts.Config.SSH.Password,
			Port:           opts.Config.SSH.Port,
			DialTimeout:    opts.Config.SSH.DialTimeout,
			CommandTimeout: opts.Config.SSH.CommandTimeout,
		})
	}
	if opts.Local == nil {
		opts.Local = sshexec.LocalDialer{CommandTimeout: opts.Config.SSH.CommandTimeout}
	}
	if opts.Sidecars == nil {
		opts.Sidecars = sidecar.NewConnector(nil, opts.Config.Sidecar.Timeout)
	}
	if opts.Shaper == nil {
		opts.Shaper = network.NetlinkShaper{}
	}
	if opts.Events == nil {
		opts.Events = events.NewBroker(events.DefaultHistory)
	}

	guard := ownership.NewGuard(opts.Config.HostIP)
	fanout := ownership.FanOut{Concurrency: opts.Config.FanOut.Concurrency, NodeTimeout: opts.Config.FanOut.NodeTimeout}
	remote := services.NewLauncher(opts.Dialer, opts.Config.SettleDelay)
	local := services.NewLauncher(opts.Local, opts.Config.SettleDelay)

	m := &Manager{
		cfg:       opts.Config,
		store:     opts.Store,
		runtime:   opts.Runtime,
		dialer:    opts.Dialer,
		local:     opts.Local,
		guard:     guard,
		fanout:    fanout,
		probes:    opts.Probes,
		registry:  NewRegistry(),
		events:    opts.Events,
		topology:  topology.NewController(opts.Dialer, guard, fanout),
		traffic:   traffic.NewController(opts.Dialer, remote, opts.Sidecars, guard, fanout),
		services:  services.NewController(remote, local, opts.Sidecars, guard, fanout),
		provision: provision.NewController(opts.Dialer, opts.Local, opts.Runtime, opts.Shaper, guard, fanout),
		ovs:       ovs.NewController(opts.Dialer, guard, fanout),
		logger:    log.WithComponent("manager"),
	}
	if m.probes == nil {
		m.probes = defaultProbes(opts.Config, opts.Runtime)
	}
	m.registerControllers()
	return m, nil
}

// HostIP returns the ownership key of this host
func (m *Manager) HostIP() string {
	return m.guard.HostIP()
}

// Registry returns the controller registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Events returns the lifecycle event broker
func (m *Manager) Events() *events.Broker {
	return m.events
}

func (m *Manager) publish(t events.EventType, id types.ExecutionID, msg string, meta map[string]string) {
	m.events.Publish(&events.Event{Type: t, Emulation: id.Emulation, IPFirstOctet: id.IPFirstOctet, Message: msg, Metadata: meta})
}

// Store returns the metastore
func (m *Manager) Store() storage.Store {
	return m.store
}

// execution reads the execution from the metastore
func (m *Manager) execution(emulation string, ipFirstOctet int) (*types.Execution, error) {
	exec, err := m.store.GetExecution(types.ExecutionID{Emulation: emulation, IPFirstOctet: ipFirstOctet})
	if err != nil {
		return nil, fmt.Errorf("execution %s/%d: %w", emulation, ipFirstOctet, err)
	}
	return exec, nil
}

// DispatchRequest routes an operation to a controller. An empty
// ContainerIP addresses every node of the execution owned by this host.
type DispatchRequest struct {
	Controller   string    `json:"controller"`
	Operation    Operation `json:"operation"`
	Emulation    string    `json:"emulation"`
	IPFirstOctet int       `json:"ip_first_octet"`
	ContainerIP  string    `json:"container_ip,omitempty"`
}

func failed(err error) types.OperationOutcome {
	return types.OperationOutcome{Outcome: false, Error: err.Error()}
}

// Dispatch performs req. A node owned by another host yields outcome=false
// without error and without side effects.
func (m *Manager) Dispatch(ctx context.Context, req DispatchRequest) types.OperationOutcome {
	logger := log.WithExecution(m.logger, req.Emulation, req.IPFirstOctet).With().
		Str("controller", req.Controller).
		Str("operation", string(req.Operation)).
		Logger()

	ctrl, err := m.registry.Get(req.Controller)
	if err != nil {
		return failed(err)
	}
	fn, err := operation(ctrl, req.Operation)
	if err != nil {
		return failed(err)
	}
	exec, err := m.execution(req.Emulation, req.IPFirstOctet)
	if err != nil {
		logger.Debug().Err(err).Msg("Execution lookup failed")
		return failed(err)
	}

	if req.ContainerIP != "" {
		n, ok := types.FindNode(ctrl.Targets(exec), req.ContainerIP)
		if !ok || !m.guard.IsLocal(n) {
			logger.Debug().Str("node", req.ContainerIP).Msg("Node not owned by this host")
			return types.OperationOutcome{}
		}
		if err := fn(ctx, exec, n); err != nil {
			logger.Error().Err(err).Str("node", n.IP).Msg("Operation failed")
			m.publish(events.EventOperationFailed, exec.ID(), err.Error(), map[string]string{
				"controller": req.Controller, "operation": string(req.Operation), "node": n.IP,
			})
			return failed(err)
		}
		return types.OperationOutcome{Outcome: true}
	}

	owned := ownership.Local(m.guard, ctrl.Targets(exec))
	start := time.Now()
	err = ownership.ForEach(ctx, m.fanout, ctrl.Name(), owned, func(ctx context.Context, n types.Node) error {
		return fn(ctx, exec, n)
	})
	meta := map[string]string{"controller": req.Controller, "operation": string(req.Operation)}
	if err != nil {
		logger.Error().Err(err).Int("nodes", len(owned)).Msg("Operation failed")
		m.publish(events.EventOperationFailed, exec.ID(), err.Error(), meta)
		return failed(err)
	}
	if fc, ok := ctrl.(*FuncController); ok && fc.AfterExecution != nil {
		if err := fc.AfterExecution(ctx, exec, req.Operation); err != nil {
			return failed(err)
		}
	}
	logger.Info().Int("nodes", len(owned)).Dur("took", time.Since(start)).Msg("Operation completed")
	m.publish(events.EventOperationComplete, exec.ID(), "", meta)
	return types.OperationOutcome{Outcome: true}
}
