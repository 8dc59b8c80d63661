package integration_tests

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"testing"

	"github.com/vk/pipegrid/internal/app"
	tu "github.com/vk/pipegrid/internal/testutil"
)

// Test for: every URL file becomes one instance that fetches its page.
func TestCoreExecution_FetchEachURL(t *testing.T) {
	// --- Arrange ---
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "page %s", r.URL.Path)
	}))
	defer srv.Close()

	tempDir := t.TempDir()
	tu.WriteFile(t, tempDir, "urls/a.txt", srv.URL+"/a\n")
	tu.WriteFile(t, tempDir, "urls/b.txt", srv.URL+"/b\n")

	gridHCL := fmt.Sprintf(`
node "0" {
  type  = "input.files"
  value = %q
}

node "1" {
  type  = "http.fetch"
  value = "5s"
}

node "2" {
  type  = "output.print"
  value = "fetched"
}

link {
  from = "0.0"
  to   = "1.0"
}

link {
  from = "1.0"
  to   = "2.0"
}
`, filepath.Join(tempDir, "urls", "*.txt"))
	gridPath := tu.WriteFile(t, tempDir, "main.hcl", gridHCL)

	out := &app.SafeBuffer{}
	testApp, _ := app.SetupAppTest(t, app.Config{GridPaths: []string{gridPath}}, modules(out)...)

	// --- Act ---
	if err := testApp.Run(context.Background()); err != nil {
		t.Fatalf("app.Run() returned an unexpected error: %v", err)
	}

	// --- Assert ---
	want := []string{`fetched = "page /a"`, `fetched = "page /b"`}
	if got := lines(t, out.String()); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
