// Package fileinput provides the "input.files" plugin: one item per file
// matched by a glob pattern.
package fileinput

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

// Type is the node type served by this module.
const Type = "input.files"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, New())
}

// Files reads every file matching the node value, a filepath.Glob pattern.
// Each item carries the file content and its path.
type Files struct {
	plugin.Info
}

var _ plugin.Input = (*Files)(nil)

// New creates the plugin.
func New() *Files {
	return &Files{Info: plugin.Info{
		Name:        "Files",
		Description: "Reads every file matching a glob pattern, one item per file.",
		Outputs: []plugin.SlotInfo{
			{Name: "content", Type: "text"},
			{Name: "path", Type: "path"},
		},
	}}
}

// match returns the regular files matching pattern in lexical order. A
// malformed pattern matches nothing.
func match(pattern string) []string {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	files := paths[:0]
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			files = append(files, p)
		}
	}
	slices.Sort(files)
	return files
}

// ProducesCount returns the number of matching files.
func (f *Files) ProducesCount(value string) int {
	return len(match(value))
}

// Retrieve reads the files lazily. A file that cannot be read yields an
// empty batch.
func (f *Files) Retrieve(ctx context.Context, value string) iter.Seq[[][]byte] {
	files := match(value)
	return func(yield func([][]byte) bool) {
		logger := ctxlog.FromContext(ctx)
		for _, path := range files {
			if ctx.Err() != nil {
				return
			}
			content, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("Could not read input file.", "path", path, "error", err)
				if !yield(nil) {
					return
				}
				continue
			}
			logger.Debug("Input file read.", "path", path, "bytes", len(content))
			if !yield([][]byte{content, []byte(path)}) {
				return
			}
		}
	}
}
