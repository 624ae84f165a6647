package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/netemu/pkg/api"
	"github.com/cuemby/netemu/pkg/events"
	"github.com/cuemby/netemu/pkg/manager"
	"github.com/cuemby/netemu/pkg/rpc"
	"github.com/cuemby/netemu/pkg/types"
	"google.golang.org/grpc"
)

// DefaultTimeout bounds every call unless overridden with SetTimeout
const DefaultTimeout = 10 * time.Minute

// Client calls the netemu.ClusterManager service of one host
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

// NewClient connects to the cluster manager at addr
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	conn, err := rpc.Dial(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, cc: conn, timeout: DefaultTimeout}, nil
}

// NewClientConn wraps an existing connection
func NewClientConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc, timeout: DefaultTimeout}
}

// SetTimeout changes the per-call timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Resp any](c *Client, method string, req interface{}) (*Resp, error) {
	ctx, cancel := rpc.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return rpc.Invoke[Resp](ctx, c.cc, api.ServiceName, method, req)
}

// GetNodeStatus returns the status of the host
func (c *Client) GetNodeStatus() (*types.NodeStatus, error) {
	return call[types.NodeStatus](c, "GetNodeStatus", &rpc.Empty{})
}

// Events returns up to limit recent lifecycle events of the host
func (c *Client) Events(limit int) ([]*events.Event, error) {
	resp, err := call[events.List](c, "ListEvents", &events.ListRequest{Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Dispatch performs a controller operation
func (c *Client) Dispatch(req manager.DispatchRequest) (*types.OperationOutcome, error) {
	return call[types.OperationOutcome](c, "Dispatch", &req)
}

// Run calls a named lifecycle operation such as StartTrafficManagers.
// containerIP is required by node-scoped operations and ignored otherwise.
func (c *Client) Run(method, emulation string, ipFirstOctet int, containerIP string) (*types.OperationOutcome, error) {
	route, ok := manager.Routes[method]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", method)
	}
	if route.NodeScoped {
		if containerIP == "" {
			return nil, fmt.Errorf("%s requires a container IP", method)
		}
		return call[types.OperationOutcome](c, method, &types.NodeRequest{Emulation: emulation, IPFirstOctet: ipFirstOctet, ContainerIP: containerIP})
	}
	return call[types.OperationOutcome](c, method, &types.ExecutionRequest{Emulation: emulation, IPFirstOctet: ipFirstOctet})
}

// StopExecution stops the containers of an execution on the host
func (c *Client) StopExecution(emulation string, ipFirstOctet int) (*types.OperationOutcome, error) {
	return call[types.OperationOutcome](c, "StopExecution", &types.ExecutionRequest{Emulation: emulation, IPFirstOctet: ipFirstOctet})
}

// StopAllExecutions stops every execution; an empty emulation selects all
// emulations
func (c *Client) StopAllExecutions(emulation string) (*types.OperationOutcome, error) {
	if emulation == "" {
		return call[types.OperationOutcome](c, "StopAllExecutions", &rpc.Empty{})
	}
	return call[types.OperationOutcome](c, "StopAllExecutionsOfEmulation", &types.EmulationRequest{Emulation: emulation})
}

// CleanExecution removes an execution from the host
func (c *Client) CleanExecution(emulation string, ipFirstOctet int) (*types.OperationOutcome, error) {
	return call[types.OperationOutcome](c, "CleanExecution", &types.ExecutionRequest{Emulation: emulation, IPFirstOctet: ipFirstOctet})
}

// CleanAllExecutions cleans every execution; an empty emulation selects
// all emulations
func (c *Client) CleanAllExecutions(emulation string) (*types.OperationOutcome, error) {
	if emulation == "" {
		return call[types.OperationOutcome](c, "CleanAllExecutions", &rpc.Empty{})
	}
	return call[types.OperationOutcome](c, "CleanAllExecutionsOfEmulation", &types.EmulationRequest{Emulation: emulation})
}

// ManagersInfo calls an aggregation method such as GetHostManagersInfo
func ManagersInfo[S any](c *Client, method, emulation string, ipFirstOctet int) (*types.ManagersInfo[S], error) {
	return call[types.ManagersInfo[S]](c, method, &types.ExecutionRequest{Emulation: emulation, IPFirstOctet: ipFirstOctet})
}

// GetNumActiveClients returns the status of the client population
func (c *Client) GetNumActiveClients(emulation string, ipFirstOctet int) (*types.ClientManagerStatus, error) {
	return call[types.ClientManagerStatus](c, "GetNumActiveClients", &types.ExecutionRequest{Emulation: emulation, IPFirstOctet: ipFirstOctet})
}

// ListContainers lists the running containers of the host, or all of them
func (c *Client) ListContainers(all bool) ([]types.ContainerDTO, error) {
	resp, err := call[types.ContainersDTO](c, "ListContainers", &types.ListContainersRequest{All: all})
	if err != nil {
		return nil, err
	}
	return resp.Containers, nil
}

// ListImages lists the images of the host
func (c *Client) ListImages() ([]types.ImageDTO, error) {
	resp, err := call[types.ImagesDTO](c, "ListImages", &rpc.Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Images, nil
}

// ListNetworks lists the docker networks of the host
func (c *Client) ListNetworks() ([]types.NetworkDTO, error) {
	resp, err := call[types.NetworksDTO](c, "ListDockerNetworks", &rpc.Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Networks, nil
}

// Container calls a per-container method: StartContainer, StopContainer
// or RemoveContainer
func (c *Client) Container(method, name string) (*types.OperationOutcome, error) {
	return call[types.OperationOutcome](c, method, &types.NameRequest{Name: name})
}

// Logs calls a log method taking a name: GetLogs, GetDockerLogs or
// GetServiceLogs
func (c *Client) Logs(method, name string) ([]string, error) {
	resp, err := call[types.LogsDTO](c, method, &types.NameRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

// GetManagerLogs returns the log of a sidecar manager
func (c *Client) GetManagerLogs(req types.ManagerLogsRequest) ([]string, error) {
	resp, err := call[types.LogsDTO](c, "GetManagerLogs", &req)
	if err != nil {
		return nil, err
	}
	return resp.Logs, nil
}
