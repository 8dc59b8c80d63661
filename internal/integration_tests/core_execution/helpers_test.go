package integration_tests

import (
	"slices"
	"strings"
	"testing"

	"github.com/vk/pipegrid/internal/app"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/modules/fileinput"
	"github.com/vk/pipegrid/modules/filesink"
	"github.com/vk/pipegrid/modules/gather"
	"github.com/vk/pipegrid/modules/http_client"
	"github.com/vk/pipegrid/modules/print"
	"github.com/vk/pipegrid/modules/text"
)

// modules returns the built-in modules with the printer redirected to out.
func modules(out *app.SafeBuffer) []registry.Module {
	return []registry.Module{
		&fileinput.Module{},
		&text.Module{},
		&gather.Module{},
		&http_client.Module{},
		&filesink.Module{},
		&print.Module{Out: out},
	}
}

// lines splits printed output into sorted, trimmed lines.
func lines(t *testing.T, s string) []string {
	t.Helper()
	var out []string
	for _, l := range strings.Split(strings.TrimSpace(s), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out
}
