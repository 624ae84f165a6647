/*
Package health provides the checkers behind the node status of a physical
host: TCP connects for services listening on a known port, HTTP probes for
services with a health endpoint, local commands (pgrep) for processes and an
engine ping for the Docker daemon.

RunAll runs a set of named probes concurrently with a per-probe timeout:

	results := health.RunAll(ctx, 2*time.Second, []health.Probe{
		{Name: "postgres", Checker: health.NewTCPChecker("127.0.0.1", 5432)},
		{Name: "prometheus", Checker: health.NewHTTPChecker("127.0.0.1", 9090, "/-/healthy")},
	})

A probe that cannot reach its service reports Healthy=false; probes never
return errors.
*/
package health
