package ownership

import (
	"context"
	"errors"
	"time"

	"github.com/cuemby/netemu/pkg/log"
	"github.com/cuemby/netemu/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Owned is implemented by every node-scoped config that declares the
// physical host allowed to mutate it
type Owned interface {
	OwnerIP() string
}

// Guard answers whether this host owns a node
type Guard struct {
	hostIP string
}

// NewGuard creates a guard for the host with the given IP
func NewGuard(hostIP string) Guard {
	return Guard{hostIP: hostIP}
}

// HostIP returns the IP compared against ownership keys
func (g Guard) HostIP() string {
	return g.hostIP
}

// IsLocal reports whether node is owned by this host
func (g Guard) IsLocal(node Owned) bool {
	if node == nil || g.hostIP == "" {
		return false
	}
	return node.OwnerIP() == g.hostIP
}

// Local filters nodes down to the ones owned by this host
func Local[T Owned](g Guard, nodes []T) []T {
	var out []T
	for _, n := range nodes {
		if g.IsLocal(n) {
			out = append(out, n)
		}
	}
	return out
}

// FanOut bounds the concurrency and duration of per-node work
type FanOut struct {
	Concurrency int
	NodeTimeout time.Duration
}

func (f FanOut) limit(n int) int {
	if f.Concurrency <= 0 || f.Concurrency > n {
		return n
	}
	return f.Concurrency
}

func (f FanOut) nodeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.NodeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.NodeTimeout)
}

// ForEach runs fn for every node concurrently and waits for all of them.
// A failing node does not cancel the others; the errors are joined.
func ForEach[T any](ctx context.Context, f FanOut, controller string, nodes []T, fn func(ctx context.Context, node T) error) error {
	if len(nodes) == 0 {
		return nil
	}

	errs := make([]error, len(nodes))
	var g errgroup.Group
	g.SetLimit(f.limit(len(nodes)))
	for i, node := range nodes {
		g.Go(func() error {
			nodeCtx, cancel := f.nodeContext(ctx)
			defer cancel()
			if err := fn(nodeCtx, node); err != nil {
				metrics.FanOutNodesTotal.WithLabelValues(controller, "failed").Inc()
				errs[i] = err
				return nil
			}
			metrics.FanOutNodesTotal.WithLabelValues(controller, "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Gather queries every node concurrently. Results keep the order of nodes;
// a node whose query fails contributes the zero value of S and ok=false.
func Gather[T any, S any](ctx context.Context, f FanOut, controller string, nodes []T, query func(ctx context.Context, node T) (S, error)) ([]S, []bool) {
	statuses := make([]S, len(nodes))
	ok := make([]bool, len(nodes))
	if len(nodes) == 0 {
		return statuses, ok
	}

	logger := log.WithComponent("aggregation")
	var g errgroup.Group
	g.SetLimit(f.limit(len(nodes)))
	for i, node := range nodes {
		g.Go(func() error {
			nodeCtx, cancel := f.nodeContext(ctx)
			defer cancel()
			status, err := query(nodeCtx, node)
			if err != nil {
				metrics.AggregationFailures.WithLabelValues(controller).Inc()
				logger.Warn().Err(err).Str("controller", controller).Int("node", i).Msg("Sidecar manager unavailable, using empty status")
				return nil
			}
			statuses[i] = status
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()
	return statuses, ok
}
