package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

func process(t *testing.T, p plugin.Process, inputs ...string) string {
	t.Helper()
	in := make([][]byte, len(inputs))
	for i, s := range inputs {
		in[i] = []byte(s)
	}
	out, err := p.Process(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, p.OutputQty())
	return string(out[0])
}

func TestTransforms(t *testing.T) {
	assert.Equal(t, "HELLO, WORLD", process(t, NewUpper(), "hello, World"))
	assert.Equal(t, "olleh", process(t, NewReverse(), "hello"))
	assert.Equal(t, "éb", process(t, NewReverse(), "bé"), "reverses runes, not bytes")
	assert.Equal(t, "", process(t, NewReverse(), ""))
}

func TestConcat_Configure(t *testing.T) {
	base := NewConcat("")
	assert.Equal(t, "ab", process(t, base, "a", "b"))

	p, err := base.Configure(" - ")
	require.NoError(t, err)
	assert.Equal(t, "a - b", process(t, p, "a", "b"))
	assert.Equal(t, "ab", process(t, base, "a", "b"), "configure returns a copy")
}

func TestModule_Register(t *testing.T) {
	r := registry.New()
	r.Load(&Module{})
	assert.Equal(t, []string{"text.concat", "text.reverse", "text.upper"}, r.Types())
	p, ok := r.Process("text.concat")
	require.True(t, ok)
	assert.Equal(t, 2, p.InputQty())
}
