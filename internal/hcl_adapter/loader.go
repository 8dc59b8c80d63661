package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/fsutil"
	"github.com/vk/pipegrid/internal/nodeid"
)

// Extensions lists the file extensions the loader reads from directories.
var Extensions = []string{".hcl", ".json"}

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the `env` variable of value expressions.
	Environ func() []string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL graph loader.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

// Load parses every file found under paths and merges them into one model.
// Link ids that are not given are numbered in the order links are read.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no graph files found in %v", paths)
	}
	logger.Debug("Discovered graph files.", "count", len(files))

	var environ []string
	if l.Environ != nil {
		environ = l.Environ()
	}
	evalCtx := newEvalContext(environ)

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range files {
		var (
			f     *hcl.File
			diags hcl.Diagnostics
		)
		if filepath.Ext(file) == ".json" {
			f, diags = parser.ParseJSONFile(file)
		} else {
			f, diags = parser.ParseHCLFile(file)
		}
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse graph file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode graph file %s: %w", file, diags)
		}

		part, err := l.translate(ctx, &root, evalCtx, len(model.Links))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		model.Merge(part)
	}

	logger.Debug("HCL loading complete.", "nodes", len(model.Nodes), "links", len(model.Links), "static", len(model.Static))
	return model, nil
}

func (l *Loader) translate(ctx context.Context, root *fileRoot, evalCtx *hcl.EvalContext, linkBase int) (*config.Model, error) {
	m := &config.Model{}

	for _, nb := range root.Nodes {
		id, err := strconv.Atoi(nb.ID)
		if err != nil {
			return nil, fmt.Errorf("node %q: label must be an integer id", nb.ID)
		}
		value, err := exprToString(ctx, nb.Value, evalCtx, "value")
		if err != nil {
			return nil, fmt.Errorf("node %d: invalid value: %w", id, err)
		}
		m.Nodes = append(m.Nodes, &config.Node{ID: id, Type: nb.Type, Title: nb.Title, Value: value})
	}

	for i, lb := range root.Links {
		id := linkBase + i
		if lb.ID != nil {
			id = *lb.ID
		}
		from, err := nodeid.Parse(lb.From)
		if err != nil {
			return nil, fmt.Errorf("link %d: from: %w", id, err)
		}
		to, err := nodeid.Parse(lb.To)
		if err != nil {
			return nil, fmt.Errorf("link %d: to: %w", id, err)
		}
		m.Links = append(m.Links, &config.Link{ID: id, From: from, To: to})
	}

	for _, sb := range root.Static {
		slot, err := nodeid.Parse(sb.Slot)
		if err != nil {
			return nil, fmt.Errorf("static %q: %w", sb.Slot, err)
		}
		value, err := exprToString(ctx, sb.Value, evalCtx, "value")
		if err != nil {
			return nil, fmt.Errorf("static %s: invalid value: %w", slot, err)
		}
		m.Static = append(m.Static, &config.Static{Slot: slot, Value: []byte(value)})
	}
	return m, nil
}
