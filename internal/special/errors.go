package special

import (
	"errors"
	"fmt"
)

// ErrInvalidConnection is returned for sync or loop nodes wired in a way that
// cannot be executed consistently.
var ErrInvalidConnection = errors.New("invalid connection")

// ConnectionError names the node a structural violation was found on.
type ConnectionError struct {
	NodeID int
	Reason string
	// Err is an optional underlying cause.
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node %d: %v: %s: %v", e.NodeID, ErrInvalidConnection, e.Reason, e.Err)
	}
	return fmt.Sprintf("node %d: %v: %s", e.NodeID, ErrInvalidConnection, e.Reason)
}

func (e *ConnectionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConnection, e.Err}
	}
	return []error{ErrInvalidConnection}
}

func connErr(nodeID int, format string, args ...any) *ConnectionError {
	return &ConnectionError{NodeID: nodeID, Reason: fmt.Sprintf(format, args...)}
}
