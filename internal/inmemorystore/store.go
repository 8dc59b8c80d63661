package inmemorystore

import (
	"maps"
	"slices"
	"sync"

	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
//
// A pipeline-scoped store is only touched by one goroutine, but the static
// store is read by all of them, so access is guarded by an RWMutex.
type Store struct {
	mu     sync.RWMutex
	values map[nodeid.NodeSlot][]byte
	frozen bool
}

// New creates a new, empty, writable store.
func New() *Store {
	return &Store{values: make(map[nodeid.NodeSlot][]byte)}
}

// NewStatic creates a store pre-populated with values and frozen.
func NewStatic(values map[nodeid.NodeSlot][]byte) *Store {
	s := &Store{values: make(map[nodeid.NodeSlot][]byte, len(values)), frozen: true}
	maps.Copy(s.values, values)
	return s
}

// Get returns the value stored for the slot.
func (s *Store) Get(slot nodeid.NodeSlot) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[slot]
	return v, ok
}

// Set records a value. It fails once the store is frozen.
func (s *Store) Set(slot nodeid.NodeSlot, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return nodestore.ErrReadOnly
	}
	s.values[slot] = value
	return nil
}

// Delete removes a value. Frozen stores ignore the call.
func (s *Store) Delete(slot nodeid.NodeSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	delete(s.values, slot)
}

// Len returns the number of stored slots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Freeze makes the store read-only.
func (s *Store) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Slots returns the stored slot references sorted by node and slot.
func (s *Store) Slots() []nodeid.NodeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Keys(s.values))
	slices.SortFunc(out, func(a, b nodeid.NodeSlot) int {
		if a.NodeID != b.NodeID {
			return a.NodeID - b.NodeID
		}
		return a.Slot - b.Slot
	})
	return out
}

var _ nodestore.Store = (*Store)(nil)
