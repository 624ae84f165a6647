// Package ownership decides which physical host may mutate a node and runs
// per-node work across an execution with bounded concurrency.
package ownership
