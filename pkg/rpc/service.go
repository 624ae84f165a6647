package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Empty is the request/response of methods without payload
type Empty struct{}

// Service collects the unary methods of one gRPC service
type Service struct {
	name    string
	methods []grpc.MethodDesc
}

// NewService starts a service declaration, e.g. "netemu.ClusterManager"
func NewService(name string) *Service {
	return &Service{name: name}
}

// Name returns the fully qualified service name
func (s *Service) Name() string {
	return s.name
}

// Handle registers a unary method on a service
func Handle[Req any, Resp any](s *Service, method string, fn func(ctx context.Context, req *Req) (*Resp, error)) {
	fullMethod := "/" + s.name + "/" + method
	s.methods = append(s.methods, grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	})
}

// Methods returns the names of the registered methods
func (s *Service) Methods() []string {
	names := make([]string, len(s.methods))
	for i, m := range s.methods {
		names[i] = m.MethodName
	}
	return names
}

// Register attaches the service to a gRPC server
func (s *Service) Register(srv *grpc.Server) {
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: s.name,
		HandlerType: (*interface{})(nil),
		Methods:     s.methods,
		Metadata:    s.name,
	}, struct{}{})
}

// Invoke calls a unary method of service on conn
func Invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, service, method string, req interface{}) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, "/"+service+"/"+method, req, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// Dial creates a plaintext client connection; the connection is lazy so
// unreachable peers surface on the first call, bounded by its context
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}
	return conn, nil
}

// WithTimeout derives a call context bounded by timeout
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
