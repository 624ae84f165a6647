package runtime

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/netemu/pkg/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

// DefaultStopTimeout is the grace period before a stopped container is killed
const DefaultStopTimeout = 10 * time.Second

// DockerRuntime controls the containers, images and networks of the local
// Docker engine
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime connects to the engine configured by the environment
// (DOCKER_HOST, DOCKER_API_VERSION, ...)
func NewDockerRuntime() (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerRuntime{client: cli}, nil
}

// Close closes the engine connection
func (r *DockerRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping checks that the engine answers
func (r *DockerRuntime) Ping(ctx context.Context) error {
	_, err := r.client.Ping(ctx)
	return err
}

// ListContainers returns the containers of the engine; all includes stopped ones
func (r *DockerRuntime) ListContainers(ctx context.Context, all bool) ([]types.ContainerDTO, error) {
	containers, err := r.client.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	out := make([]types.ContainerDTO, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, types.ContainerDTO{Name: name, Image: c.Image, ID: c.ID, State: c.State})
	}
	return out, nil
}

// StartContainer starts a created or stopped container
func (r *DockerRuntime) StartContainer(ctx context.Context, name string) error {
	if err := r.client.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", name, err)
	}
	return nil
}

// StopContainer stops a running container; stopping a missing container is a no-op
func (r *DockerRuntime) StopContainer(ctx context.Context, name string) error {
	timeout := int(DefaultStopTimeout.Seconds())
	err := r.client.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}
	return nil
}

// RemoveContainer force-removes a container and its anonymous volumes
func (r *DockerRuntime) RemoveContainer(ctx context.Context, name string) error {
	err := r.client.ContainerRemove(ctx, name, container.RemoveOptions{Force: true, RemoveVolumes: true})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}
	return nil
}

// ContainerPID returns the host PID of a running container's init process
func (r *DockerRuntime) ContainerPID(ctx context.Context, name string) (int, error) {
	info, err := r.client.ContainerInspect(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	if info.State == nil || !info.State.Running || info.State.Pid == 0 {
		return 0, fmt.Errorf("container %s is not running", name)
	}
	return info.State.Pid, nil
}

// UpdateResources bounds the CPUs and memory of a container
func (r *DockerRuntime) UpdateResources(ctx context.Context, name string, cpus float64, memoryMB int64) error {
	resources := container.Resources{}
	if cpus > 0 {
		resources.NanoCPUs = int64(cpus * 1e9)
	}
	if memoryMB > 0 {
		resources.Memory = memoryMB * 1024 * 1024
		resources.MemorySwap = resources.Memory
	}
	if _, err := r.client.ContainerUpdate(ctx, name, container.UpdateConfig{Resources: resources}); err != nil {
		return fmt.Errorf("failed to update resources of %s: %w", name, err)
	}
	return nil
}

// ContainerLogs returns the last n lines of a container's stdout and stderr
func (r *DockerRuntime) ContainerLogs(ctx context.Context, name string, n int) ([]string, error) {
	rc, err := r.client.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       fmt.Sprintf("%d", n),
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read logs of %s: %w", name, err)
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		return nil, fmt.Errorf("failed to demultiplex logs of %s: %w", name, err)
	}
	stdout.Write(stderr.Bytes())
	return TailLines(&stdout, n)
}

// ListImages returns the images of the engine
func (r *DockerRuntime) ListImages(ctx context.Context) ([]types.ImageDTO, error) {
	images, err := r.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	out := make([]types.ImageDTO, 0, len(images))
	for _, img := range images {
		name := "<none>"
		if len(img.RepoTags) > 0 {
			name = img.RepoTags[0]
		}
		out = append(out, types.ImageDTO{Name: name, ID: img.ID, Size: img.Size})
	}
	return out, nil
}

// RemoveImage force-removes an image
func (r *DockerRuntime) RemoveImage(ctx context.Context, name string) error {
	if _, err := r.client.ImageRemove(ctx, name, image.RemoveOptions{Force: true, PruneChildren: true}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove image %s: %w", name, err)
	}
	return nil
}

// ListNetworks returns the networks of the engine
func (r *DockerRuntime) ListNetworks(ctx context.Context) ([]types.NetworkDTO, error) {
	networks, err := r.client.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	out := make([]types.NetworkDTO, 0, len(networks))
	for _, n := range networks {
		out = append(out, types.NetworkDTO{Name: n.Name, ID: n.ID})
	}
	return out, nil
}

// CreateNetwork creates a network with a fixed subnet; an existing network
// with the same name is left untouched
func (r *DockerRuntime) CreateNetwork(ctx context.Context, n *types.ContainerNetwork, driver string) error {
	existing, err := r.client.NetworkList(ctx, network.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", n.Name)),
	})
	if err != nil {
		return fmt.Errorf("failed to look up network %s: %w", n.Name, err)
	}
	for _, e := range existing {
		if e.Name == n.Name {
			return nil
		}
	}

	if driver == "" {
		driver = "bridge"
	}
	_, err = r.client.NetworkCreate(ctx, n.Name, network.CreateOptions{
		Driver:     driver,
		Attachable: true,
		IPAM: &network.IPAM{
			Driver: "default",
			Config: []network.IPAMConfig{{Subnet: n.Subnet}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", n.Name, err)
	}
	return nil
}

// RemoveNetwork removes a network; removing a missing network is a no-op
func (r *DockerRuntime) RemoveNetwork(ctx context.Context, name string) error {
	if err := r.client.NetworkRemove(ctx, name); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove network %s: %w", name, err)
	}
	return nil
}
