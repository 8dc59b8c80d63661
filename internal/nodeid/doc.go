// internal/nodeid/doc.go

/*
Package nodeid provides the slot reference used to address data throughout
the system: a node id paired with a slot position on that node.

The canonical textual form is `<node>.<slot>`, e.g. `4.1`, which is how
links are written in graph description files.

A NodeSlot with a negative node id, or a slot below -1, is invalid. The
slot value -1 on its own means "the node as a whole" and is used where no
slot distinction is needed.
*/
package nodeid
