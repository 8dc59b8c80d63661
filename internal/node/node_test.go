package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		in   string
		want Kind
	}{
		{"sync", KindSync},
		{"SYNC", KindSync},
		{" loopstart ", KindLoopStart},
		{"LoopEnd", KindLoopEnd},
		{"input.files", KindPlugin},
		{"", KindPlugin},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.in))
		})
	}
}

func TestKind_IsSpecial(t *testing.T) {
	assert.False(t, KindPlugin.IsSpecial())
	assert.True(t, KindSync.IsSpecial())
	assert.True(t, KindLoopStart.IsSpecial())
	assert.True(t, KindLoopEnd.IsSpecial())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "unknown", Status(42).String())
}
