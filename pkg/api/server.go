package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"

	"github.com/cuemby/netemu/pkg/events"
	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/manager"
	"github.com/cuemby/netemu/pkg/rpc"
	"github.com/cuemby/netemu/pkg/storage"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the gRPC service of the cluster manager
const ServiceName = "netemu.ClusterManager"

// Server exposes a Manager as the netemu.ClusterManager gRPC service
type Server struct {
	manager *manager.Manager
	service *rpc.Service
	grpc    *grpc.Server
	local   *grpc.Server
	health  *health.Server
	logger  zerolog.Logger
}

// NewServer creates the API server. maxStreams bounds the calls served
// concurrently per connection; 0 keeps the gRPC default.
func NewServer(mgr *manager.Manager, maxStreams uint32) *Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(ObserveInterceptor())}
	if maxStreams > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(maxStreams))
	}

	s := &Server{
		manager: mgr,
		service: NewService(mgr),
		grpc:    grpc.NewServer(opts...),
		health:  health.NewServer(),
		logger:  log.WithComponent("api"),
	}
	s.service.Register(s.grpc)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Start serves the API on addr until Stop
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	s.logger.Info().Str("addr", addr).Int("methods", len(s.service.Methods())).Msg("gRPC API listening")
	return s.Serve(lis)
}

// Serve serves the API on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// StartUnix serves the read-only subset of the API on a unix socket
func (s *Server) StartUnix(path string) error {
	_ = os.Remove(path)
	lis, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", path, err)
	}
	s.local = grpc.NewServer(grpc.ChainUnaryInterceptor(ReadOnlyInterceptor(), ObserveInterceptor()))
	s.service.Register(s.local)
	healthpb.RegisterHealthServer(s.local, s.health)
	s.logger.Info().Str("socket", path).Msg("Read-only API listening")
	return s.local.Serve(lis)
}

// Stop gracefully stops the gRPC servers
func (s *Server) Stop() {
	s.health.Shutdown()
	if s.local != nil {
		s.local.GracefulStop()
	}
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// Methods returns the names of the served methods
func (s *Server) Methods() []string {
	return s.service.Methods()
}

// toStatus maps manager errors onto gRPC codes
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, manager.ErrNoRuntime):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func outcome(out types.OperationOutcome) (*types.OperationOutcome, error) {
	return &out, nil
}

// value handles methods that return a value or an error
func value[Req any, Resp any](svc *rpc.Service, method string, fn func(ctx context.Context, req *Req) (Resp, error)) {
	rpc.Handle(svc, method, func(ctx context.Context, req *Req) (*Resp, error) {
		v, err := fn(ctx, req)
		if err != nil {
			return nil, toStatus(err)
		}
		return &v, nil
	})
}

// info handles an aggregation over the sidecar managers of an execution
func info[S any](svc *rpc.Service, method string, fn func(ctx context.Context, emulation string, ipFirstOctet int) (S, error)) {
	value(svc, method, func(ctx context.Context, req *types.ExecutionRequest) (S, error) {
		return fn(ctx, req.Emulation, req.IPFirstOctet)
	})
}

func logs(lines []string, err error) (types.LogsDTO, error) {
	if err != nil {
		return types.LogsDTO{}, err
	}
	return types.LogsDTO{Logs: lines}, nil
}

// NewService declares every method of the cluster manager on mgr
func NewService(mgr *manager.Manager) *rpc.Service {
	svc := rpc.NewService(ServiceName)

	// node status
	rpc.Handle(svc, "GetNodeStatus", func(ctx context.Context, _ *rpc.Empty) (*types.NodeStatus, error) {
		st := mgr.GetNodeStatus(ctx)
		return &st, nil
	})
	rpc.Handle(svc, "ListEvents", func(ctx context.Context, req *events.ListRequest) (*events.List, error) {
		return &events.List{Events: mgr.Events().Recent(req.Limit)}, nil
	})

	// generic and named lifecycle operations
	rpc.Handle(svc, "Dispatch", func(ctx context.Context, req *manager.DispatchRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.Dispatch(ctx, *req))
	})
	names := make([]string, 0, len(manager.Routes))
	for name := range manager.Routes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		route := manager.Routes[name]
		if route.NodeScoped {
			rpc.Handle(svc, name, func(ctx context.Context, req *types.NodeRequest) (*types.OperationOutcome, error) {
				return outcome(mgr.Dispatch(ctx, route.Request(req.Emulation, req.IPFirstOctet, req.ContainerIP)))
			})
			continue
		}
		rpc.Handle(svc, name, func(ctx context.Context, req *types.ExecutionRequest) (*types.OperationOutcome, error) {
			return outcome(mgr.Dispatch(ctx, route.Request(req.Emulation, req.IPFirstOctet, "")))
		})
	}

	// execution state
	rpc.Handle(svc, "StopExecution", func(ctx context.Context, req *types.ExecutionRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.StopExecution(ctx, req.Emulation, req.IPFirstOctet))
	})
	rpc.Handle(svc, "StopAllExecutions", func(ctx context.Context, _ *rpc.Empty) (*types.OperationOutcome, error) {
		return outcome(mgr.StopAllExecutions(ctx))
	})
	rpc.Handle(svc, "StopAllExecutionsOfEmulation", func(ctx context.Context, req *types.EmulationRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.StopAllExecutionsOfEmulation(ctx, req.Emulation))
	})
	rpc.Handle(svc, "CleanExecution", func(ctx context.Context, req *types.ExecutionRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.CleanExecution(ctx, req.Emulation, req.IPFirstOctet))
	})
	rpc.Handle(svc, "CleanAllExecutions", func(ctx context.Context, _ *rpc.Empty) (*types.OperationOutcome, error) {
		return outcome(mgr.CleanAllExecutions(ctx))
	})
	rpc.Handle(svc, "CleanAllExecutionsOfEmulation", func(ctx context.Context, req *types.EmulationRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.CleanAllExecutionsOfEmulation(ctx, req.Emulation))
	})
	rpc.Handle(svc, "CreateDockerNetworks", func(ctx context.Context, req *types.ExecutionRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.CreateDockerNetworks(ctx, req.Emulation, req.IPFirstOctet))
	})
	rpc.Handle(svc, "RemoveDockerNetworks", func(ctx context.Context, req *types.ExecutionRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.RemoveDockerNetworks(ctx, req.Emulation, req.IPFirstOctet))
	})

	// sidecar aggregations
	info(svc, "GetClientManagersInfo", mgr.GetClientManagersInfo)
	info(svc, "GetTrafficManagersInfo", mgr.GetTrafficManagersInfo)
	info(svc, "GetNumActiveClients", mgr.GetNumActiveClients)
	info(svc, "GetHostManagersInfo", mgr.GetHostManagersInfo)
	info(svc, "GetSnortIdsManagersInfo", mgr.GetSnortIDSManagersInfo)
	info(svc, "GetOssecIdsManagersInfo", mgr.GetOSSECIDSManagersInfo)
	info(svc, "GetKafkaManagersInfo", mgr.GetKafkaManagersInfo)
	info(svc, "GetElkManagersInfo", mgr.GetElkManagersInfo)
	info(svc, "GetSdnControllerInfo", mgr.GetSDNControllerInfo)
	info(svc, "GetDockerStatsManagersInfo", mgr.GetDockerStatsManagersInfo)

	// containers, images and networks of this host
	value(svc, "ListContainers", func(ctx context.Context, req *types.ListContainersRequest) (types.ContainersDTO, error) {
		c, err := mgr.ListContainers(ctx, req.All)
		return types.ContainersDTO{Containers: c}, err
	})
	rpc.Handle(svc, "StartContainer", func(ctx context.Context, req *types.NameRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.StartContainer(ctx, req.Name))
	})
	rpc.Handle(svc, "StopContainer", func(ctx context.Context, req *types.NameRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.StopContainer(ctx, req.Name))
	})
	rpc.Handle(svc, "RemoveContainer", func(ctx context.Context, req *types.NameRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.RemoveContainer(ctx, req.Name))
	})
	rpc.Handle(svc, "StopAllRunningContainers", func(ctx context.Context, _ *rpc.Empty) (*types.OperationOutcome, error) {
		return outcome(mgr.StopAllRunningContainers(ctx))
	})
	value(svc, "ListImages", func(ctx context.Context, _ *rpc.Empty) (types.ImagesDTO, error) {
		images, err := mgr.ListImages(ctx)
		return types.ImagesDTO{Images: images}, err
	})
	rpc.Handle(svc, "RemoveImage", func(ctx context.Context, req *types.NameRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.RemoveImage(ctx, req.Name))
	})
	value(svc, "ListDockerNetworks", func(ctx context.Context, _ *rpc.Empty) (types.NetworksDTO, error) {
		networks, err := mgr.ListNetworks(ctx)
		return types.NetworksDTO{Networks: networks}, err
	})
	rpc.Handle(svc, "RemoveDockerNetwork", func(ctx context.Context, req *types.NameRequest) (*types.OperationOutcome, error) {
		return outcome(mgr.RemoveNetwork(ctx, req.Name))
	})

	// logs
	value(svc, "GetLogs", func(ctx context.Context, req *types.NameRequest) (types.LogsDTO, error) {
		return logs(mgr.GetLogs(req.Name))
	})
	value(svc, "GetDockerLogs", func(ctx context.Context, req *types.NameRequest) (types.LogsDTO, error) {
		return logs(mgr.GetDockerLogs(ctx, req.Name))
	})
	value(svc, "GetServiceLogs", func(ctx context.Context, req *types.NameRequest) (types.LogsDTO, error) {
		return logs(mgr.GetServiceLogs(ctx, req.Name))
	})
	value(svc, "GetManagerLogs", func(ctx context.Context, req *types.ManagerLogsRequest) (types.LogsDTO, error) {
		return logs(mgr.GetManagerLogs(ctx, *req))
	})

	return svc
}
