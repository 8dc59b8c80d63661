package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/pipegrid/internal/hcl_adapter"
)

// Export loads the configured description files and writes them to w as one
// canonical native-syntax document.
func (a *App) Export(ctx context.Context, w io.Writer) error {
	ctx = a.context(ctx)
	model, err := a.loader.Load(ctx, a.config.GridPaths...)
	if err != nil {
		return fmt.Errorf("failed to load graph description: %w", err)
	}
	if err := model.Validate(); err != nil {
		return fmt.Errorf("invalid graph description: %w", err)
	}
	a.logger.Debug("Exporting graph description.", "nodes", len(model.Nodes), "links", len(model.Links))
	return hcl_adapter.Write(w, model)
}
