// Package config defines the format-agnostic model of an authored pipeline
// graph, along with the Loader interface that turns files on disk into it.
//
// The `config.Model` is the single source of truth for the `graph` package.
// Concrete loaders, such as the one for HCL, are provided in separate
// packages.
package config
