// Package scheduler provides the decision-making engine for a single pipeline
// instance. Its primary role is to analyze the state of the instance and
// determine which nodes are ready to be executed, providing them to the
// executor.
//
// # How It Works
//
// The executor drives a loop per instance:
//  1. Ask Ready for the pending nodes whose producer slots all hold a value
//     in the instance store or the static store
//  2. Run them, marking each one Running and then Completed or Failed
//  3. When a loopend node runs, hand its inputs to EndIteration, which
//     either resets the loop body for another pass or lets the loop finish
//  4. Repeat until Done, or until nothing is ready and nothing more can
//     arrive from sync nodes, which the executor reports as no progress
//
// Readiness is decided by resolver.HasFulfilledDependency. The scheduler is
// not safe for concurrent use; each instance owns one.
package scheduler
