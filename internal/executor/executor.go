// Package executor defines the interface for the pipeline runtime.
package executor

import "context"

// Executor is responsible for running every pipeline instance of a built
// graph to completion. It manages concurrency, drives the per-instance
// schedulers and releases sync barriers.
type Executor interface {
	Execute(ctx context.Context) error
}
