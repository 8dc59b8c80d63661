// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
)

// slotRegex matches `<node>.<slot>` with non-negative integers on both sides.
var slotRegex = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// Parse creates a NodeSlot by parsing its canonical string representation.
func Parse(raw string) (NodeSlot, error) {
	if raw == "" {
		return Invalid, fmt.Errorf("slot reference cannot be empty")
	}

	matches := slotRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Invalid, fmt.Errorf("invalid slot reference format: %q, expected <node>.<slot>", raw)
	}

	nodeID, err := strconv.Atoi(matches[1])
	if err != nil {
		return Invalid, fmt.Errorf("invalid node id in %q: %w", raw, err)
	}
	slot, err := strconv.Atoi(matches[2])
	if err != nil {
		return Invalid, fmt.Errorf("invalid slot in %q: %w", raw, err)
	}

	return New(nodeID, slot), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(raw string) NodeSlot {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}
