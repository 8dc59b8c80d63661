// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. Pipeline instances each get their own
// store; the static store is built once with NewStatic and frozen.
package inmemorystore
