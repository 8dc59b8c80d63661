package config

import "context"

// Loader is the interface for a format-specific graph description loader.
type Loader interface {
	// Load reads every description file found under the given paths and
	// translates them into one format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
