// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface.
//
// Every pipeline instance runs on its own goroutine and walks its nodes in
// dependency order, asking its scheduler which nodes are ready. Plugin calls
// are bounded by a weighted semaphore sized to the configured worker count;
// instances waiting on a sync barrier hold no slot. The first error cancels
// the run.
//
// Sync nodes are not run by any instance. Each one is a barrier collecting
// one contribution per producing instance and input slot. Once complete it
// frames every slot with package syncdata, delivers the result to the inbox
// of every instance it triggers and contributes it to downstream sync nodes.
// Instances write the delivered values into their own store, so a store is
// only ever mutated by the goroutine owning it.
package localexecutor
