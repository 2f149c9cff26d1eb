package color_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveasm/pkg/asm"
	"liveasm/pkg/color"
)

func TestListing(t *testing.T) {
	color.EnableColor(false)
	require.False(t, color.IsColorEnabled())

	text := "add:\n\t.loc 1 2 0\n\tmovl\t$1, %eax\n\tret\n"
	res := asm.Analyze(asm.GNU, text, asm.ViewConfig{Mode: asm.Instructions, HideDirectives: true}, 2)

	var b strings.Builder
	require.NoError(t, color.Listing(&b, asm.GNU, res))
	assert.Equal(t, "  1 add:\n> 3         movl    $1, %eax\n> 4         ret\n", b.String())
}

func TestMessages(t *testing.T) {
	color.EnableColor(false)
	assert.Equal(t, "Error: boom", color.Error("boom"))
	assert.Equal(t, "Warning: careful", color.Warning("careful"))
	assert.Equal(t, "Info: hello", color.Info("hello"))
	assert.Equal(t, "gcc -S", color.Status("gcc -S"))
}
