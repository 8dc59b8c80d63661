package builder

import (
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/nodestore"
)

type options struct {
	newStore func() nodestore.Store
}

// Option configures a build.
type Option func(*options)

// WithStoreFactory sets the constructor of pipeline-scoped stores.
func WithStoreFactory(f func() nodestore.Store) Option {
	return func(o *options) {
		o.newStore = f
	}
}

func defaultOptions() *options {
	return &options{
		newStore: func() nodestore.Store { return inmemorystore.New() },
	}
}
