package builder

import (
	"errors"
	"fmt"
)

// ErrPipeline is returned when branch cardinalities cannot be reconciled.
var ErrPipeline = errors.New("inconsistent pipeline multiplicity")

// PipelineError names the region the inconsistency was found in.
type PipelineError struct {
	Region int
	Reason string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("region %d: %v: %s", e.Region, ErrPipeline, e.Reason)
}

func (e *PipelineError) Unwrap() error {
	return ErrPipeline
}
