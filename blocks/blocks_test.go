package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/patchc/block"
)

func TestRegisterCatalog(t *testing.T) {
	reg := block.NewRegistry()
	require.NoError(t, Register(reg))

	assert.Equal(t, "const", reg.ConstType())
	assert.Equal(t, "broadcast", reg.BroadcastType())

	for _, typ := range []string{
		"const", "angle_deg", "time", "add", "multiply", "scale",
		"osc", "sine", "hash", "unit_delay", "lag", "phase_accum",
		"broadcast", "reduce", "place_line", "place_circle", "color",
		"render_points",
	} {
		_, ok := reg.Lookup(typ)
		assert.True(t, ok, "missing contract %q", typ)
	}
}

func TestEveryAdapterHasAContract(t *testing.T) {
	reg := block.NewRegistry()
	require.NoError(t, Register(reg))

	for _, a := range reg.Adapters() {
		c, ok := reg.Lookup(a.BlockType)
		require.True(t, ok, "adapter %q has no contract", a.BlockType)

		in, ok := c.Input("in")
		require.True(t, ok)
		assert.Equal(t, a.FromUnit, in.Type.Unit, "adapter %q", a.BlockType)

		out, ok := c.Output("out")
		require.True(t, ok)
		assert.Equal(t, a.ToUnit, out.Type.Unit, "adapter %q", a.BlockType)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := block.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Error(t, Register(reg))
}

func TestPlacementBlocksCreateInstances(t *testing.T) {
	reg := block.NewRegistry()
	require.NoError(t, Register(reg))

	for _, typ := range []string{"place_line", "place_circle"} {
		c, ok := reg.Lookup(typ)
		require.True(t, ok)
		assert.True(t, c.CreatesInstance, "%s", typ)
	}
	c, _ := reg.Lookup("broadcast")
	assert.False(t, c.CreatesInstance, "broadcast inherits, never creates")
}
