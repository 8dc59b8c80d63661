// Package filesink provides "output.files", which writes every payload it
// receives into a directory named by the node value.
package filesink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

// Extension is appended to every written file name.
const Extension = ".out"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("output.files", New(""))
}

// Sink writes payloads to uniquely named files.
type Sink struct {
	plugin.Info
	dir string
}

var _ plugin.Configurable = (*Sink)(nil)

// New creates the plugin writing into dir.
func New(dir string) *Sink {
	return &Sink{
		Info: plugin.Info{
			Name:        "Files",
			Description: "Writes each payload into a new file in a directory.",
			Inputs:      []plugin.SlotInfo{{Name: "payload"}},
			Outputs:     []plugin.SlotInfo{{Name: "path", Type: "path"}},
		},
		dir: dir,
	}
}

// Configure binds the target directory and creates it.
func (s *Sink) Configure(value string) (plugin.Process, error) {
	if value == "" {
		return nil, errors.New("output.files: a target directory is required")
	}
	if err := os.MkdirAll(value, 0o755); err != nil {
		return nil, fmt.Errorf("output.files: %w", err)
	}
	return New(value), nil
}

// Process writes the payload and returns the path of the new file.
func (s *Sink) Process(ctx context.Context, inputs [][]byte) ([][]byte, error) {
	if s.dir == "" {
		return nil, errors.New("output.files: not configured")
	}
	path := filepath.Join(s.dir, uuid.NewString()+Extension)
	if err := os.WriteFile(path, inputs[0], 0o644); err != nil {
		return nil, fmt.Errorf("output.files: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Payload written.", "path", path, "bytes", len(inputs[0]))
	return [][]byte{[]byte(path)}, nil
}
