// Package graph provides the in-memory dependency representation of an
// authored pipeline: an arena of nodes addressed by integer id, each owning
// slot-indexed edges in both directions.
//
// # Edges
//
// An edge connects an output slot of a producer to an input slot of a
// consumer. It is recorded twice:
//
//   - on the consumer, in `dependencies[inSlot] = (producer, outSlot)`;
//   - on the producer, in `dependents[outSlot]`, which lists every
//     `(consumer, inSlot)` that output fans out to.
//
// Every input slot has at most one producer. Slot positions on the two sides
// of an edge are independent: a producer's slot 0 may feed a consumer's
// slot 2.
//
// # Consistency
//
// Edges are only created through Graph.Connect, which updates both sides or
// neither. For every edge (A.o -> B.i) the graph guarantees
//
//	A.dependents[o] contains (B, i)  <=>  B.dependencies[i] == (A, o)
//
// Downstream packages (resolver, special, builder) rely on this invariant
// and do not validate it again.
//
// # Derived views
//
// DependentNode.Dependencies and DependentNode.Dependents return sorted,
// memoised slices. Each mutation marks the node dirty and the next read
// recomputes the view, so callers always observe a deterministic order no
// matter the order edges were added in.
package graph
