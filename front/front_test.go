package front_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/blocks"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/front"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/types"
)

func newRegistry(t *testing.T) *block.Registry {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, blocks.Register(reg))
	return reg
}

func portType(t *testing.T, tp *front.TypedPatch, blockID, port string, dir front.Direction) types.CanonicalType {
	t.Helper()
	bi, ok := tp.Index[blockID]
	require.True(t, ok, "block %s not indexed", blockID)
	typ, ok := tp.Ports[front.PortKey{Block: bi, Port: port, Dir: dir}]
	require.True(t, ok, "port %s.%s has no resolved type", blockID, port)
	return typ
}

func TestNormalizeSimpleChain(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("phase1", "phase_accum", patch.Params{"frequency": 0.5}).
		AddBlock("osc1", "osc", nil).
		Connect("phase1", "out", "osc1", "phase")

	tp, diags := front.Normalize(reg, p)
	require.Empty(t, diags, "%v", diags.Err())

	assert.True(t, portType(t, tp, "phase1", "out", front.DirOut).
		Equal(types.Signal(types.PayloadFloat, types.UnitPhase)))
	assert.True(t, portType(t, tp, "osc1", "phase", front.DirIn).
		Equal(types.Signal(types.PayloadFloat, types.UnitPhase)))
	assert.True(t, portType(t, tp, "osc1", "out", front.DirOut).
		Equal(types.Signal(types.PayloadFloat, types.UnitScalar)))

	// The unwired frequency default became a const source block.
	bi, ok := tp.Index["~default.phase1.frequency"]
	require.True(t, ok)
	assert.Equal(t, "const", tp.Blocks[bi].Type)
	assert.Equal(t, 1.0, tp.Blocks[bi].Params.Float("value", 0))

	var defaultEdges int
	for _, e := range tp.Edges {
		if e.Role == patch.RoleDefault {
			defaultEdges++
		}
	}
	assert.Equal(t, 1, defaultEdges)
}

func TestNormalizeDuplicateBlockID(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("x", "osc", nil).
		AddBlock("x", "time", nil)

	_, diags := front.Normalize(reg, p)
	require.NotEmpty(t, diags)
	assert.True(t, diags.Has(diag.DuplicateBlockID))
}

func TestNormalizeUnknownBlockType(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().AddBlock("x", "warp_drive", nil)

	_, diags := front.Normalize(reg, p)
	require.NotEmpty(t, diags)
	assert.True(t, diags.Has(diag.UnknownBlockType))
}

func TestNormalizeCycleNamesEveryBlock(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("a", "add", nil).
		AddBlock("b", "add", nil).
		AddBlock("c", "add", nil).
		Connect("a", "out", "b", "a").
		Connect("b", "out", "c", "a").
		Connect("c", "out", "a", "a")

	_, diags := front.Normalize(reg, p)
	require.Len(t, diags, 1)
	require.Equal(t, diag.CycleDetected, diags[0].Code)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, diags[0].Cycle)
}

func TestNormalizeRejectsFanInOnInput(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("t1", "time", nil).
		AddBlock("t2", "time", nil).
		AddBlock("s", "sec_to_ms", nil).
		Connect("t1", "seconds", "s", "in").
		Connect("t2", "seconds", "s", "in")

	_, diags := front.Normalize(reg, p)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags.Error(), "more than one incoming edge")
}

func TestNormalizeAllowsFanOutOnOutput(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("phase1", "phase_accum", nil).
		AddBlock("o1", "osc", nil).
		AddBlock("o2", "osc", nil).
		Connect("phase1", "out", "o1", "phase").
		Connect("phase1", "out", "o2", "phase")

	_, diags := front.Normalize(reg, p)
	assert.Empty(t, diags, "%v", diags.Err())
}

func TestNormalizeInsertsAdapterChain(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("angle", "angle_deg", patch.Params{"value": 90.0}).
		AddBlock("osc1", "osc", nil).
		Connect("angle", "out", "osc1", "phase")

	tp, diags := front.Normalize(reg, p)
	require.Empty(t, diags, "%v", diags.Err())

	// degrees -> radians -> phase, applied at signal cardinality.
	var chain []string
	for _, b := range tp.Blocks {
		if strings.HasPrefix(b.ID, "~adapter") {
			chain = append(chain, b.Type)
		}
	}
	assert.Equal(t, []string{"deg_to_rad", "rad_to_phase"}, chain)

	for _, e := range tp.Edges {
		if strings.HasPrefix(e.From.Block, "~adapter") || strings.HasPrefix(e.To.Block, "~adapter") {
			assert.Equal(t, patch.RoleAdapter, e.Role)
		}
	}

	// The original direct edge is gone.
	for _, e := range tp.Edges {
		assert.False(t, e.From.Block == "angle" && e.To.Block == "osc1",
			"mismatched edge survived adapter insertion")
	}
}

func TestNormalizeInsertsBroadcast(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("line1", "place_line", patch.Params{"count": 4}).
		AddBlock("norm1", "norm_to_scalar", nil).
		AddBlock("sum", "add", nil).
		AddBlock("delay1", "unit_delay", nil).
		AddBlock("c", "const", patch.Params{"value": 2.0}).
		Connect("line1", "t", "norm1", "in").
		Connect("norm1", "out", "sum", "a").
		Connect("c", "out", "delay1", "in").
		Connect("delay1", "out", "sum", "b")

	tp, diags := front.Normalize(reg, p)
	require.Empty(t, diags, "%v", diags.Err())

	var broadcasts int
	for _, b := range tp.Blocks {
		if strings.HasPrefix(b.ID, "~adapter") {
			assert.Equal(t, "broadcast", b.Type)
			broadcasts++
		}
	}
	assert.Equal(t, 1, broadcasts)

	// The field side fixed the domain for the whole add block.
	sumOut := portType(t, tp, "sum", "out", front.DirOut)
	assert.Equal(t, types.Many, sumOut.Card)
	assert.NotEqual(t, types.NoInstance, sumOut.Instance)
}

func TestNormalizeFieldToSignalNeedsReduce(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("line1", "place_line", patch.Params{"count": 4}).
		AddBlock("norm1", "norm_to_scalar", nil).
		AddBlock("delay1", "unit_delay", nil).
		Connect("line1", "t", "norm1", "in").
		Connect("norm1", "out", "delay1", "in")

	_, diags := front.Normalize(reg, p)
	require.NotEmpty(t, diags)
	assert.True(t, diags.Has(diag.NoAdapterFound))
	assert.Contains(t, diags.Error(), "reduce")
}

func TestNormalizeDistinctDomainsMismatch(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("line1", "place_line", patch.Params{"count": 4}).
		AddBlock("line2", "place_line", patch.Params{"count": 8}).
		AddBlock("n1", "norm_to_scalar", nil).
		AddBlock("n2", "norm_to_scalar", nil).
		AddBlock("sum", "add", nil).
		Connect("line1", "t", "n1", "in").
		Connect("line2", "t", "n2", "in").
		Connect("n1", "out", "sum", "a").
		Connect("n2", "out", "sum", "b")

	_, diags := front.Normalize(reg, p)
	require.NotEmpty(t, diags)
	assert.True(t, diags.Has(diag.TypeMismatch))
}

func TestNormalizeAccumulatesErrors(t *testing.T) {
	reg := newRegistry(t)
	// Two independent authoring errors in one patch.
	p := patch.New().
		AddBlock("x", "warp_drive", nil).
		AddBlock("y", "flux_capacitor", nil)

	_, diags := front.Normalize(reg, p)
	assert.Len(t, diags, 2)
}

func TestNormalizeUnconnectedRequiredInput(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().AddBlock("delay1", "unit_delay", nil)

	_, diags := front.Normalize(reg, p)
	require.NotEmpty(t, diags)
	assert.True(t, diags.Has(diag.UnresolvedType))
	assert.Contains(t, diags.Error(), "not connected")
}

func TestNormalizeIdempotent(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("angle", "angle_deg", patch.Params{"value": 45.0}).
		AddBlock("osc1", "osc", nil).
		Connect("angle", "out", "osc1", "phase")

	tp, diags := front.Normalize(reg, p)
	require.Empty(t, diags, "%v", diags.Err())

	again, diags := front.Normalize(reg, tp.Patch())
	require.Empty(t, diags, "%v", diags.Err())

	// Already-normalized graphs gain no further blocks or edges.
	assert.Equal(t, len(tp.Blocks), len(again.Blocks))
	assert.Equal(t, len(tp.Edges), len(again.Edges))
}
