package storage

import (
	"errors"

	"github.com/cuemby/netemu/pkg/types"
)

// ErrNotFound is returned when a key does not exist in the metastore
var ErrNotFound = errors.New("not found")

// Store is the metastore holding executions and the cluster configuration.
// Executions are keyed by (emulation, ip_first_octet) and always read fresh.
type Store interface {
	// Executions
	SaveExecution(exec *types.Execution) error
	GetExecution(id types.ExecutionID) (*types.Execution, error)
	ListExecutions() ([]*types.Execution, error)
	ListExecutionsByEmulation(emulation string) ([]*types.Execution, error)
	DeleteExecution(id types.ExecutionID) error

	// Cluster
	SaveClusterConfig(cfg *types.ClusterConfig) error
	GetClusterConfig() (*types.ClusterConfig, error)

	// Utility
	Ping() error
	Close() error
}

func filterByEmulation(execs []*types.Execution, emulation string) []*types.Execution {
	var out []*types.Execution
	for _, e := range execs {
		if e.EmulationName == emulation {
			out = append(out, e)
		}
	}
	return out
}
