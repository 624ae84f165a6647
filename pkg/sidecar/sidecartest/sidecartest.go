// Package sidecartest serves in-memory sidecar managers over bufconn.
package sidecartest

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/cuemby/netemu/pkg/rpc"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// Cluster routes dials by host:port to in-memory servers. Dials to an
// address without a server fail like an unreachable sidecar.
type Cluster struct {
	mu        sync.Mutex
	listeners map[string]*bufconn.Listener
	dials     map[string]int
}

// NewCluster creates an empty cluster torn down with t
func NewCluster(t testing.TB) *Cluster {
	c := &Cluster{
		listeners: make(map[string]*bufconn.Listener),
		dials:     make(map[string]int),
	}
	t.Cleanup(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, l := range c.listeners {
			l.Close()
		}
	})
	return c
}

// Serve starts a server at addr exposing svcs
func (c *Cluster) Serve(t testing.TB, addr string, svcs ...*rpc.Service) {
	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	for _, svc := range svcs {
		svc.Register(srv)
	}
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	c.mu.Lock()
	c.listeners[addr] = lis
	c.mu.Unlock()
}

// Dial implements sidecar.Dialer
func (c *Cluster) Dial(ctx context.Context, addr string) (sidecar.Conn, error) {
	c.mu.Lock()
	c.dials[addr]++
	c.mu.Unlock()

	conn, err := rpc.Dial("passthrough:///"+addr, grpc.WithContextDialer(func(ctx context.Context, target string) (net.Conn, error) {
		c.mu.Lock()
		lis, ok := c.listeners[target]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("connection refused: %s", target)
		}
		return lis.DialContext(ctx)
	}))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Dials returns how many connections were opened to addr
func (c *Cluster) Dials(addr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dials[addr]
}

// TotalDials returns the number of connections opened to any address
func (c *Cluster) TotalDials() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.dials {
		n += d
	}
	return n
}

// Calls records the methods invoked on a fake
type Calls struct {
	mu    sync.Mutex
	names []string
}

func (c *Calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

// Names returns the invoked methods in order
func (c *Calls) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// StatusService answers every sidecar method of service with status
func StatusService[S any](service string, status S, calls *Calls) *rpc.Service {
	svc := rpc.NewService(service)
	reply := func(method string) func(ctx context.Context, _ *struct{}) (*S, error) {
		return func(ctx context.Context, _ *struct{}) (*S, error) {
			if calls != nil {
				calls.add(method)
			}
			s := status
			return &s, nil
		}
	}
	for _, m := range []string{
		sidecar.MethodStatus, sidecar.MethodStart, sidecar.MethodStop,
		sidecar.MethodStartMonitor, sidecar.MethodStopMonitor,
		sidecar.MethodConfigBeat, sidecar.MethodStartBeat, sidecar.MethodStopBeat,
		sidecar.MethodCreateTopic,
	} {
		rpc.Handle(svc, m, reply(m))
	}
	return svc
}

// TrafficManager is a stateful fake traffic manager
type TrafficManager struct {
	Calls
	mu      sync.Mutex
	running bool
}

func (f *TrafficManager) Service() *rpc.Service {
	svc := rpc.NewService(sidecar.TrafficManagerService)
	rpc.Handle(svc, sidecar.MethodStatus, func(ctx context.Context, _ *rpc.Empty) (*types.TrafficManagerStatus, error) {
		f.add(sidecar.MethodStatus)
		return f.status(), nil
	})
	rpc.Handle(svc, sidecar.MethodStart, func(ctx context.Context, _ *rpc.Empty) (*types.TrafficManagerStatus, error) {
		f.add(sidecar.MethodStart)
		f.setRunning(true)
		return f.status(), nil
	})
	rpc.Handle(svc, sidecar.MethodStop, func(ctx context.Context, _ *rpc.Empty) (*types.TrafficManagerStatus, error) {
		f.add(sidecar.MethodStop)
		f.setRunning(false)
		return f.status(), nil
	})
	return svc
}

func (f *TrafficManager) setRunning(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = v
}

func (f *TrafficManager) status() *types.TrafficManagerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &types.TrafficManagerStatus{Running: f.running}
}

// ClientManager is a stateful fake client manager
type ClientManager struct {
	Calls
	mu       sync.Mutex
	state    types.ClientManagerStatus
	lastReq  *sidecar.StartClientsRequest
	producer *sidecar.KafkaTarget
}

// NewClientManager creates a fake starting from state
func NewClientManager(state types.ClientManagerStatus) *ClientManager {
	return &ClientManager{state: state}
}

// LastStart returns the last start request received
func (f *ClientManager) LastStart() *sidecar.StartClientsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

// State returns the current status
func (f *ClientManager) State() types.ClientManagerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *ClientManager) Service() *rpc.Service {
	svc := rpc.NewService(sidecar.ClientManagerService)
	rpc.Handle(svc, sidecar.MethodStatus, func(ctx context.Context, _ *rpc.Empty) (*types.ClientManagerStatus, error) {
		f.add(sidecar.MethodStatus)
		return f.snapshot(), nil
	})
	rpc.Handle(svc, sidecar.MethodStart, func(ctx context.Context, req *sidecar.StartClientsRequest) (*types.ClientManagerStatus, error) {
		f.add(sidecar.MethodStart)
		f.mu.Lock()
		f.lastReq = req
		f.state.ClientProcessActive = true
		f.state.ClientsTimeStepLen = req.TimeStepLenSeconds
		f.mu.Unlock()
		return f.snapshot(), nil
	})
	rpc.Handle(svc, sidecar.MethodStop, func(ctx context.Context, _ *rpc.Empty) (*types.ClientManagerStatus, error) {
		f.add(sidecar.MethodStop)
		f.mu.Lock()
		f.state.ClientProcessActive = false
		f.state.NumClients = 0
		f.mu.Unlock()
		return f.snapshot(), nil
	})
	rpc.Handle(svc, sidecar.MethodStartProducer, func(ctx context.Context, req *sidecar.KafkaTarget) (*types.ClientManagerStatus, error) {
		f.add(sidecar.MethodStartProducer)
		f.mu.Lock()
		f.producer = req
		f.state.ProducerActive = true
		f.state.ProducerTimeStepLen = req.TimeStepLenSeconds
		f.mu.Unlock()
		return f.snapshot(), nil
	})
	rpc.Handle(svc, sidecar.MethodStopProducer, func(ctx context.Context, _ *rpc.Empty) (*types.ClientManagerStatus, error) {
		f.add(sidecar.MethodStopProducer)
		f.mu.Lock()
		f.state.ProducerActive = false
		f.mu.Unlock()
		return f.snapshot(), nil
	})
	return svc
}

func (f *ClientManager) snapshot() *types.ClientManagerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state
	return &s
}
