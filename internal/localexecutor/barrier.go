package localexecutor

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vk/pipegrid/internal/syncdata"
)

type contribution struct {
	order int
	value []byte
	skip  bool
}

type slotState struct {
	expected int
	got      []contribution
	seen     map[string]struct{}
}

func (s *slotState) complete() bool {
	return len(s.got) >= s.expected
}

// barrier collects the contributions to one sync node.
type barrier struct {
	syncID int

	mu    sync.Mutex
	slots map[int]*slotState
	fired bool
}

func newBarrier(syncID int) *barrier {
	return &barrier{syncID: syncID, slots: make(map[int]*slotState)}
}

// expect declares the number of contributions an input slot waits for.
func (b *barrier) expect(slot, n int) {
	b.slots[slot] = &slotState{expected: n, seen: make(map[string]struct{})}
}

// prefill completes an input slot with a single value.
func (b *barrier) prefill(slot int, value []byte) {
	b.slots[slot] = &slotState{
		expected: 1,
		got:      []contribution{{value: value}},
		seen:     map[string]struct{}{"static": {}},
	}
}

// contribute records the value one producer sent to an input slot. It
// returns the framed outputs, keyed by slot, when this contribution
// completes the barrier. A producer contributing twice to a slot is
// ignored.
func (b *barrier) contribute(slot int, producer string, c contribution) (map[int][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fired {
		return nil, nil
	}
	st, ok := b.slots[slot]
	if !ok {
		return nil, fmt.Errorf("sync node %d has no input slot %d", b.syncID, slot)
	}
	if _, dup := st.seen[producer]; dup {
		return nil, nil
	}
	st.seen[producer] = struct{}{}
	st.got = append(st.got, c)
	return b.releaseLocked()
}

// release fires the barrier if every slot is already complete.
func (b *barrier) release() (map[int][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fired {
		return nil, nil
	}
	return b.releaseLocked()
}

func (b *barrier) releaseLocked() (map[int][]byte, error) {
	for _, st := range b.slots {
		if !st.complete() {
			return nil, nil
		}
	}
	b.fired = true

	out := make(map[int][]byte, len(b.slots))
	for slot, st := range b.slots {
		slices.SortStableFunc(st.got, func(a, c contribution) int { return a.order - c.order })
		values := make([][]byte, 0, len(st.got))
		for _, c := range st.got {
			if !c.skip {
				values = append(values, c.value)
			}
		}
		framed, err := syncdata.Encode(values)
		if err != nil {
			return nil, fmt.Errorf("sync node %d slot %d: %w", b.syncID, slot, err)
		}
		out[slot] = framed
	}
	return out, nil
}
