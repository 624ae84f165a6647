package api

import (
	"context"
	"strings"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/metrics"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDKey is the metadata key carrying the request id
const RequestIDKey = "x-request-id"

// ObserveInterceptor tags every call with a request id, records the RPC
// metrics and logs the call
func ObserveInterceptor() grpc.UnaryServerInterceptor {
	logger := log.WithComponent("api")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))
		method := methodName(info.FullMethod)
		l := logger.With().Str("request_id", id).Str("method", method).Logger()
		ctx = l.WithContext(ctx)

		timer := metrics.NewTimer()
		resp, err := handler(ctx, req)
		timer.ObserveDurationVec(metrics.RPCDuration, method)

		result := outcomeLabel(resp, err)
		metrics.RPCRequestsTotal.WithLabelValues(method, result).Inc()
		if err != nil {
			l.Warn().Err(err).Dur("took", timer.Duration()).Msg("RPC failed")
		} else {
			l.Debug().Str("outcome", result).Dur("took", timer.Duration()).Msg("RPC served")
		}
		return resp, err
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDKey); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}

func outcomeLabel(resp interface{}, err error) string {
	if err != nil {
		return "error"
	}
	if out, ok := resp.(*types.OperationOutcome); ok && !out.Outcome {
		if out.Error != "" {
			return "failed"
		}
		return "skipped"
	}
	return "ok"
}

// ReadOnlyInterceptor rejects every call that changes state. It guards the
// local unix socket used by the CLI for inspection.
func ReadOnlyInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !isReadOnlyMethod(info.FullMethod) {
			return nil, status.Errorf(codes.PermissionDenied,
				"%s changes state and is not allowed on the local socket", methodName(info.FullMethod))
		}
		return handler(ctx, req)
	}
}

// methodName extracts "GetNodeStatus" from "/netemu.ClusterManager/GetNodeStatus"
func methodName(fullMethod string) string {
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[i+1:]
	}
	return fullMethod
}

// isReadOnlyMethod checks if a gRPC method only reads state
func isReadOnlyMethod(method string) bool {
	name := methodName(method)
	if name == "" {
		return false
	}
	for _, prefix := range []string{"List", "Get", "Check", "Watch"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return name == "PingExecution"
}
