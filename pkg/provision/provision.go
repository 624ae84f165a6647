package provision

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/network"
	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNotProvisioned is returned for nodes without a config of the
// requested kind
var ErrNotProvisioned = errors.New("node has no such config")

// Containers updates the resources of running containers
type Containers interface {
	UpdateResources(ctx context.Context, name string, cpus float64, memoryMB int64) error
	ContainerPID(ctx context.Context, name string) (int, error)
}

// Controller installs users, vulnerabilities, flags and resource limits
// in the containers owned by this host
type Controller struct {
	dialer     sshexec.Dialer
	local      sshexec.Dialer
	containers Containers
	shaper     network.Shaper
	guard      ownership.Guard
	fanout     ownership.FanOut
	logger     zerolog.Logger
}

// NewController creates a provisioning controller. dialer reaches the
// containers, local runs commands on this host.
func NewController(dialer, local sshexec.Dialer, containers Containers, shaper network.Shaper, guard ownership.Guard, fanout ownership.FanOut) *Controller {
	return &Controller{
		dialer:     dialer,
		local:      local,
		containers: containers,
		shaper:     shaper,
		guard:      guard,
		fanout:     fanout,
		logger:     log.WithComponent("provision"),
	}
}

func (c *Controller) run(ctx context.Context, n types.Node, cmds []string) error {
	session, err := c.dialer.Dial(ctx, n.DockerGwBridgeIP)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", n.IP, err)
	}
	defer session.Close()
	for _, cmd := range cmds {
		if _, err := session.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// UserCommands returns the commands recreating the accounts of u
func UserCommands(u *types.NodeUsersConfig) []string {
	var cmds []string
	for _, user := range u.Users {
		// deluser fails for unknown accounts
		cmds = append(cmds, fmt.Sprintf("sudo deluser --remove-home %s > /dev/null 2>&1 || true", user.Username))
		groups := ""
		if user.Root {
			groups = " -g root -G sudo"
		}
		cmds = append(cmds, fmt.Sprintf("sudo useradd -rm -d /home/%s -s /bin/bash%s -p \"$(openssl passwd -1 %s)\" %s",
			user.Username, groups, quote(user.Password), user.Username))
	}
	return cmds
}

// CreateUsers creates the accounts of node n
func (c *Controller) CreateUsers(ctx context.Context, exec *types.Execution, n types.Node) error {
	if exec.Config == nil || exec.Config.Users == nil {
		return ErrNotProvisioned
	}
	var cmds []string
	for _, u := range exec.Config.Users.Nodes {
		if u.IP == n.IP {
			cmds = append(cmds, UserCommands(u)...)
		}
	}
	if err := c.run(ctx, n, cmds); err != nil {
		return fmt.Errorf("failed to create users on %s: %w", n.IP, err)
	}
	return nil
}

// CreateVulnerabilities runs the install commands of every vulnerability
// of node n, in declaration order
func (c *Controller) CreateVulnerabilities(ctx context.Context, exec *types.Execution, n types.Node) error {
	if exec.Config == nil || exec.Config.Vulnerabilities == nil {
		return ErrNotProvisioned
	}
	logger := log.WithNode(c.logger, n.IP)
	for _, v := range exec.Config.Vulnerabilities.Nodes {
		if v.IP != n.IP {
			continue
		}
		if err := c.run(ctx, n, v.Commands); err != nil {
			return fmt.Errorf("failed to install vulnerability %s on %s: %w", v.Name, n.IP, err)
		}
		logger.Debug().Str("vulnerability", v.Name).Str("type", v.Type).Msg("Vulnerability installed")
	}
	return nil
}

func flagPath(f types.Flag) string {
	if f.Dir != "" && !strings.HasPrefix(f.Path, "/") {
		return path.Join(f.Dir, f.Path)
	}
	return f.Path
}

// CreateFlags writes every flag of node n
func (c *Controller) CreateFlags(ctx context.Context, exec *types.Execution, n types.Node) error {
	if exec.Config == nil || exec.Config.Flags == nil {
		return ErrNotProvisioned
	}
	session, err := c.dialer.Dial(ctx, n.DockerGwBridgeIP)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", n.IP, err)
	}
	defer session.Close()

	for _, nf := range exec.Config.Flags.Nodes {
		if nf.IP != n.IP {
			continue
		}
		for _, f := range nf.Flags {
			p := flagPath(f)
			if err := session.WriteFile(ctx, p, []byte(f.Name+"\n"), 0o644); err != nil {
				return fmt.Errorf("failed to write flag %s on %s: %w", p, n.IP, err)
			}
			if !f.RequiresRoot {
				continue
			}
			if _, err := session.Run(ctx, fmt.Sprintf("sudo chown root:root %s && sudo chmod 600 %s", p, p)); err != nil {
				return fmt.Errorf("failed to protect flag %s on %s: %w", p, n.IP, err)
			}
		}
	}
	return nil
}

// ApplyResourceConstraints bounds the CPU and memory of the container of
// node n and shapes its interfaces
func (c *Controller) ApplyResourceConstraints(ctx context.Context, exec *types.Execution, n types.Node) error {
	if exec.Config == nil || exec.Config.ResourceConstraints == nil {
		return ErrNotProvisioned
	}
	for _, r := range exec.Config.ResourceConstraints.Nodes {
		if r.IP != n.IP {
			continue
		}
		if err := c.containers.UpdateResources(ctx, r.ContainerName, r.CPUs, r.MemoryMB); err != nil {
			return fmt.Errorf("failed to limit %s: %w", r.ContainerName, err)
		}
		if len(r.Interfaces) == 0 {
			continue
		}
		pid, err := c.containers.ContainerPID(ctx, r.ContainerName)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", r.ContainerName, err)
		}
		if err := c.shaper.Shape(ctx, pid, r.Interfaces); err != nil {
			return fmt.Errorf("failed to shape %s: %w", r.ContainerName, err)
		}
		logger := log.WithNode(c.logger, n.IP)
		logger.Debug().
			Str("container", r.ContainerName).
			Float64("cpus", r.CPUs).
			Int64("memory_mb", r.MemoryMB).
			Msg("Resource constraints applied")
	}
	return nil
}

// Ping checks from this host that node n answers ICMP
func (c *Controller) Ping(ctx context.Context, n types.Node) error {
	session, err := c.local.Dial(ctx, sshexec.LocalHost)
	if err != nil {
		return err
	}
	defer session.Close()
	if _, err := session.Run(ctx, fmt.Sprintf("ping -c 1 -W 2 %s", n.IP)); err != nil {
		return fmt.Errorf("%s unreachable: %w", n.IP, err)
	}
	return nil
}
