// Package registry provides the central "glue" for the plugin system.
//
// The Registry maps the node type strings used in graph descriptions (e.g.,
// "input.files") to the compiled plugins that implement them. Modules add
// their plugins during application startup through the Module interface.
//
// Once populated, the registry is used to validate a graph against the
// plugins it references: every plugin node must resolve, its connected slots
// must exist on the plugin, and the type tags on both ends of an edge must
// agree. This keeps a wide class of mistakes out of the runtime.
package registry
