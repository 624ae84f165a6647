package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cuemby/netemu/pkg/types"
)

var (
	// ErrUnknownController is returned when dispatching to an unregistered
	// controller
	ErrUnknownController = errors.New("unknown controller")

	// ErrUnsupportedOperation is returned when a controller lacks the
	// requested capability
	ErrUnsupportedOperation = errors.New("operation not supported by controller")
)

// Operation is a capability of a controller
type Operation string

const (
	OpStart       Operation = "start"
	OpStop        Operation = "stop"
	OpStatus      Operation = "status"
	OpApplyConfig Operation = "apply-config"
)

// NodeFunc performs an operation on one node of an execution
type NodeFunc func(ctx context.Context, exec *types.Execution, n types.Node) error

// Controller is the capability set shared by every dispatchable controller.
// Operations run on a single node; execution-wide dispatch fans them out
// over the owned targets.
type Controller interface {
	Name() string
	Targets(exec *types.Execution) []types.Node
	Start(ctx context.Context, exec *types.Execution, n types.Node) error
	Stop(ctx context.Context, exec *types.Execution, n types.Node) error
	Status(ctx context.Context, exec *types.Execution, n types.Node) error
	ApplyConfig(ctx context.Context, exec *types.Execution, n types.Node) error
}

// FuncController builds a Controller from functions. Nil operations are
// unsupported.
type FuncController struct {
	ID          string
	TargetsFunc func(exec *types.Execution) []types.Node
	StartFunc   NodeFunc
	StopFunc    NodeFunc
	StatusFunc  NodeFunc
	ApplyFunc   NodeFunc
	// AfterExecution runs once an execution-wide operation succeeded on
	// every owned target
	AfterExecution func(ctx context.Context, exec *types.Execution, op Operation) error
}

func (c *FuncController) Name() string { return c.ID }

func (c *FuncController) Targets(exec *types.Execution) []types.Node {
	if c.TargetsFunc == nil || exec == nil {
		return nil
	}
	return c.TargetsFunc(exec)
}

func (c *FuncController) Start(ctx context.Context, exec *types.Execution, n types.Node) error {
	return call(ctx, c.StartFunc, exec, n)
}

func (c *FuncController) Stop(ctx context.Context, exec *types.Execution, n types.Node) error {
	return call(ctx, c.StopFunc, exec, n)
}

func (c *FuncController) Status(ctx context.Context, exec *types.Execution, n types.Node) error {
	return call(ctx, c.StatusFunc, exec, n)
}

func (c *FuncController) ApplyConfig(ctx context.Context, exec *types.Execution, n types.Node) error {
	return call(ctx, c.ApplyFunc, exec, n)
}

func call(ctx context.Context, fn NodeFunc, exec *types.Execution, n types.Node) error {
	if fn == nil {
		return ErrUnsupportedOperation
	}
	return fn(ctx, exec, n)
}

// Supports reports whether c implements op
func (c *FuncController) Supports(op Operation) bool {
	switch op {
	case OpStart:
		return c.StartFunc != nil
	case OpStop:
		return c.StopFunc != nil
	case OpStatus:
		return c.StatusFunc != nil
	case OpApplyConfig:
		return c.ApplyFunc != nil
	}
	return false
}

// Registry maps controller names to controllers
type Registry struct {
	controllers map[string]Controller
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]Controller)}
}

// Register adds c, replacing any controller with the same name
func (r *Registry) Register(c Controller) {
	r.controllers[c.Name()] = c
}

// Get returns the controller registered under name
func (r *Registry) Get(name string) (Controller, error) {
	c, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownController, name)
	}
	return c, nil
}

// Names returns the registered controller names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.controllers))
	for n := range r.controllers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// operation returns the node function of c for op
func operation(c Controller, op Operation) (NodeFunc, error) {
	if s, ok := c.(interface{ Supports(Operation) bool }); ok && !s.Supports(op) {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedOperation, c.Name(), op)
	}
	switch op {
	case OpStart:
		return c.Start, nil
	case OpStop:
		return c.Stop, nil
	case OpStatus:
		return c.Status, nil
	case OpApplyConfig:
		return c.ApplyConfig, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, op)
}
