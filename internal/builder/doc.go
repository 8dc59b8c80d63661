/*
Package builder computes how many parallel pipeline instances a graph needs
and builds them.

The builder consumes a graph together with the special.Data produced by the
detector. Its work is split into phases, all of which run before anything
observable is mutated:

 1. Region analysis: for every region, find its roots and the input roots
    among them (nodes whose plugin declares an output quantity), the sync
    nodes it feeds and the sync nodes that trigger it.

 2. Partitioning: create one input group per region that has roots, then one
    sync group per (sync node, triggered region) pair, sync nodes taken in
    dependency order.

 3. Ownership: every region is owned by exactly one group, its input group
    if it has one, otherwise the first sync group triggering it. Every other
    group running the same region is linked to the owner and shares the
    owner's instance set by identity.

 4. Multiplicity: the owner's instance count is the product of the
    quantities of the region's input roots. A region that is triggered by a
    sync it also feeds may hold at most one fanning input; anything else is
    rejected with ErrPipeline.

 5. Construction: instances are created per owning group, each with a
    fresh pipeline-scoped store and the item index it takes from every input
    root. The first input root varies slowest.

The build is single-threaded and deterministic. It either fully succeeds or
returns an error without touching the special.Data it was given.
*/
package builder
