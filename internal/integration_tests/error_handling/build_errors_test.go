package integration_tests

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vk/pipegrid/internal/app"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/special"
	tu "github.com/vk/pipegrid/internal/testutil"
)

func link(from, to string) string {
	return fmt.Sprintf("link {\n  from = %q\n  to   = %q\n}\n", from, to)
}

func node(id int, typ, value string) string {
	if value == "" {
		return fmt.Sprintf("node \"%d\" {\n  type = %q\n}\n", id, typ)
	}
	return fmt.Sprintf("node \"%d\" {\n  type  = %q\n  value = %q\n}\n", id, typ, value)
}

// Test for: structural problems abort the run before any plugin is called.
func TestErrorHandling_BuildErrors(t *testing.T) {
	tempDir := t.TempDir()
	tu.WriteFile(t, tempDir, "data/a.txt", "alpha")
	tu.WriteFile(t, tempDir, "other/b.txt", "bravo")
	pattern := filepath.Join(tempDir, "data", "*.txt")
	otherPattern := filepath.Join(tempDir, "other", "*.txt")

	testCases := []struct {
		name    string
		grid    string
		target  error
		message string
	}{
		{
			name:   "unknown plugin type",
			grid:   node(0, "no.such.plugin", ""),
			target: registry.ErrUnknownPlugin,
		},
		{
			name:   "link to a missing slot",
			grid:   node(0, "input.files", pattern) + node(1, "text.upper", "") + link("0.0", "1.3"),
			target: registry.ErrSlotOutOfRange,
		},
		{
			name:   "mismatched slot types",
			grid:   node(0, "input.files", pattern) + node(1, "text.upper", "") + link("0.1", "1.0"),
			target: registry.ErrTypeMismatch,
		},
		{
			name:   "two producers for one slot",
			grid:   node(0, "input.files", pattern) + node(1, "text.upper", "") + link("0.0", "1.0") + link("0.0", "1.0"),
			target: graph.ErrSlotInUse,
		},
		{
			name: "cycle",
			grid: node(0, "text.concat", "") + node(1, "text.upper", "") +
				link("0.0", "1.0") + link("1.0", "0.0"),
			target: graph.ErrCycle,
		},
		{
			name: "sync fed by two independent generators",
			grid: node(0, "input.files", pattern) + node(1, "input.files", otherPattern) + node(2, "sync", "") +
				node(3, "gather.join", "") + link("0.0", "2.0") + link("1.0", "2.1") + link("2.0", "3.0"),
			target: special.ErrInvalidConnection,
		},
		{
			name: "sync inputs joined only after the sync",
			grid: node(0, "input.files", pattern) + node(1, "input.files", otherPattern) + node(2, "sync", "") +
				node(3, "text.concat", "") + node(4, "output.print", "") +
				link("0.0", "2.0") + link("1.0", "2.1") + link("0.0", "3.0") + link("1.0", "3.1") + link("3.0", "4.0"),
			target: special.ErrInvalidConnection,
		},
		{
			name:    "sink without a target directory",
			grid:    node(0, "input.files", pattern) + node(1, "output.files", "") + link("0.0", "1.0"),
			message: "a target directory is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			gridPath := tu.WriteFile(t, t.TempDir(), "main.hcl", tc.grid)
			testApp, _ := app.SetupAppTest(t, app.Config{GridPaths: []string{gridPath}})

			// --- Act ---
			err := testApp.Run(context.Background())

			// --- Assert ---
			if err == nil {
				t.Fatal("app.Run() should have failed")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Errorf("expected error wrapping %v, got: %v", tc.target, err)
			}
			if tc.message != "" && !strings.Contains(err.Error(), tc.message) {
				t.Errorf("expected error containing %q, got: %v", tc.message, err)
			}
		})
	}
}
