package integration_tests

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/vk/pipegrid/internal/app"
	tu "github.com/vk/pipegrid/internal/testutil"
)

// Test for: a static value stands in for a node's output in every instance.
func TestCoreExecution_StaticValueIsSharedByInstances(t *testing.T) {
	// --- Arrange ---
	tempDir := t.TempDir()
	tu.WriteFile(t, tempDir, "data/a.txt", "alpha")
	tu.WriteFile(t, tempDir, "data/b.txt", "bravo")

	gridHCL := fmt.Sprintf(`
node "0" {
  type  = "input.files"
  value = %q
}

node "1" {
  type = "text.upper"
}

node "2" {
  type  = "text.concat"
  value = " / "
}

node "3" {
  type  = "output.print"
  value = "joined"
}

link {
  from = "0.0"
  to   = "2.0"
}

link {
  from = "1.0"
  to   = "2.1"
}

link {
  from = "2.0"
  to   = "3.0"
}

static {
  slot  = "1.0"
  value = "suffix"
}
`, filepath.Join(tempDir, "data", "*.txt"))
	gridPath := tu.WriteFile(t, tempDir, "main.hcl", gridHCL)

	out := &app.SafeBuffer{}
	testApp, _ := app.SetupAppTest(t, app.Config{GridPaths: []string{gridPath}}, modules(out)...)

	// --- Act ---
	if err := testApp.Run(context.Background()); err != nil {
		t.Fatalf("app.Run() returned an unexpected error: %v", err)
	}

	// --- Assert ---
	want := []string{`joined = "alpha / suffix"`, `joined = "bravo / suffix"`}
	if got := lines(t, out.String()); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
