package health

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
	CheckTypeExec CheckType = "exec"
	CheckTypePing CheckType = "ping"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

func pass(start time.Time, format string, args ...interface{}) Result {
	return Result{Healthy: true, Message: fmt.Sprintf(format, args...), CheckedAt: start, Duration: time.Since(start)}
}

func fail(start time.Time, format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...), CheckedAt: start, Duration: time.Since(start)}
}

// Probe names a checker of one local service
type Probe struct {
	Name    string
	Checker Checker
}

// RunAll runs every probe concurrently, each bounded by timeout, and
// returns the results by probe name
func RunAll(ctx context.Context, timeout time.Duration, probes []Probe) map[string]Result {
	results := make([]Result, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results[i] = p.Checker.Check(checkCtx)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Result, len(probes))
	for i, p := range probes {
		out[p.Name] = results[i]
	}
	return out
}

// Pinger is implemented by engines that answer a liveness ping
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports an engine healthy when it answers Ping
type PingChecker struct {
	Target Pinger
}

func (p *PingChecker) Check(ctx context.Context) Result {
	start := time.Now()
	if p.Target == nil {
		return fail(start, "no engine client")
	}
	if err := p.Target.Ping(ctx); err != nil {
		return fail(start, "ping failed: %v", err)
	}
	return pass(start, "pong")
}

func (p *PingChecker) Type() CheckType {
	return CheckTypePing
}
