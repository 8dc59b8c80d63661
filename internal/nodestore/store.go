// Package nodestore defines the interfaces for the key-value data stores that
// hold intermediate node results, keyed by slot reference.
//
// # Scopes
//
// Two scopes exist during a run:
//
//   - **Pipeline-scoped:** one store per pipeline instance, exclusively owned
//     and mutated by the goroutine running that instance.
//   - **Static:** one store per run, frozen before execution starts and read
//     concurrently by every instance without locking on the caller's side.
//
// Values are opaque byte payloads. Presence, not content, is what the
// readiness predicate in package resolver checks.
package nodestore

import (
	"errors"

	"github.com/vk/pipegrid/internal/nodeid"
)

// ErrReadOnly is returned when writing to a frozen store.
var ErrReadOnly = errors.New("store is read-only")

// Reader is the read side of a data store.
type Reader interface {
	// Get returns the value stored for the slot and whether it was present.
	Get(slot nodeid.NodeSlot) ([]byte, bool)
}

// Store is a mutable data store.
type Store interface {
	Reader

	// Set records the value produced on a slot.
	Set(slot nodeid.NodeSlot, value []byte) error

	// Delete removes the value of a slot. Deleting a missing slot is a no-op.
	Delete(slot nodeid.NodeSlot)

	// Len returns the number of stored slots.
	Len() int
}
