package sidecar

import (
	"context"

	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/types"
)

// Aggregate queries the sidecar of every node and merges the answers. An
// unreachable sidecar contributes an empty status and running=false, so
// every slice of the result has one entry per node.
func Aggregate[S any](ctx context.Context, f ownership.FanOut, controller string, exec *types.Execution, nodes []types.Node, port int, query func(ctx context.Context, node types.Node) (*S, error)) types.ManagersInfo[S] {
	statuses, ok := ownership.Gather(ctx, f, controller, nodes, func(ctx context.Context, n types.Node) (S, error) {
		s, err := query(ctx, n)
		if err != nil {
			var empty S
			return empty, err
		}
		return *s, nil
	})

	info := types.ManagersInfo[S]{
		IPs:           make([]string, len(nodes)),
		Ports:         make([]int, len(nodes)),
		EmulationName: exec.EmulationName,
		ExecutionID:   exec.IPFirstOctet,
		Running:       ok,
		Statuses:      statuses,
	}
	for i, n := range nodes {
		info.IPs[i] = n.IP
		info.Ports[i] = port
	}
	return info
}
