package localexecutor

import "errors"

var (
	// ErrPluginContract is returned when a plugin produces a different
	// number of outputs than it declares.
	ErrPluginContract = errors.New("plugin broke its output contract")
	// ErrNoProgress is returned when an instance has pending nodes but
	// nothing is ready and no sync delivery is outstanding.
	ErrNoProgress = errors.New("pipeline instance cannot make progress")
)
