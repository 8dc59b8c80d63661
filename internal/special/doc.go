// Package special detects the structural nodes that change the cardinality
// or control flow of a pipeline graph and validates how they are wired.
//
// # Sync nodes
//
// A sync node is a barrier that merges every parallel instance feeding it
// into one flow. Its inputs must come from other sync nodes, from the static
// store, or from producers that trace back to the same fan-out origins. The
// origins of a producer are the root nodes reached by walking its
// dependencies upstream, stopping at sync nodes and static slots. A sync
// whose inputs trace to different origins would merge unrelated item
// streams and is rejected with ErrInvalidConnection, even when the origins
// are joined again further downstream.
//
// # Regions
//
// A region is a connected set of non-sync nodes, joined by edges that do not
// pass through a sync node. Regions are the unit the multiplicity builder
// turns into pipeline instances. A region is identified by its lowest node
// id.
//
// # Loops
//
// A loopstart node is paired with a loopend node the same way parentheses
// are matched: walking downstream from the start, every nested loopstart
// raises a depth counter and every loopend lowers it; the loopend reached at
// depth zero closes the pair. All branches leaving a start must reach the
// same end.
//
// Detection is whole-graph and fail-fast: the first violation aborts and no
// Data is returned.
package special
