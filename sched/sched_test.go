package sched_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/blocks"
	"github.com/glowkit/patchc/front"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/sched"
	"github.com/glowkit/patchc/types"
)

func compile(t *testing.T, p *patch.Patch) *sched.Program {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, blocks.Register(reg))

	tp, diags := front.Normalize(reg, p)
	require.Empty(t, diags, "%v", diags.Err())
	mod, err := front.Lower(reg, tp)
	require.NoError(t, err)
	prog, err := sched.Build(mod)
	require.NoError(t, err)
	return prog
}

func delayPatch() *patch.Patch {
	return patch.New().
		AddBlock("c", "const", patch.Params{"value": 5.0}).
		AddBlock("d", "unit_delay", nil).
		Connect("c", "out", "d", "in")
}

func ringPatch() *patch.Patch {
	return patch.New().
		AddBlock("ring", "place_circle", patch.Params{"count": 3}).
		AddBlock("out", "render_points", nil).
		Connect("ring", "position", "out", "position")
}

func TestBuildDelayProgram(t *testing.T) {
	prog := compile(t, delayPatch())

	sc := &prog.Schedule
	require.Len(t, sc.States, 1)
	assert.Equal(t, 0.0, sc.States[0].Init)
	require.Len(t, sc.Steps, 3)
	assert.Equal(t, sched.OpEvalSig, sc.Steps[0].Op)
	assert.Equal(t, sched.OpReadState, sc.Steps[1].Op)
	assert.Equal(t, sched.OpWriteState, sc.Steps[2].Op)
	assert.Equal(t, 2, sc.Lanes)
}

func TestBuildFieldProgram(t *testing.T) {
	prog := compile(t, ringPatch())

	assert.Equal(t, map[types.Instance]int{1: 3}, prog.Counts)
	require.Len(t, prog.IR.Sinks, 1)
	assert.Equal(t, "out", prog.IR.Sinks[0].Block)

	pos, ok := prog.IR.Sinks[0].Inputs["position"]
	require.True(t, ok)
	info := prog.SlotOf(pos)
	assert.Equal(t, 2, info.Stride)
	assert.Equal(t, 3, info.Elems)
}

func TestBuildDeterministic(t *testing.T) {
	a := compile(t, ringPatch())
	b := compile(t, ringPatch())

	assert.Empty(t, cmp.Diff(a.Schedule, b.Schedule))
	assert.Empty(t, cmp.Diff(a.NodeSlot, b.NodeSlot))
	assert.Equal(t, sched.Format(a), sched.Format(b))
}

func TestBuildSlotsAlwaysFresh(t *testing.T) {
	// Recompiling allocates slots from zero; nothing is reused.
	a := compile(t, delayPatch())
	b := compile(t, delayPatch())
	assert.Equal(t, sched.Slot(0), a.NodeSlot[0])
	assert.Equal(t, sched.Slot(0), b.NodeSlot[0])
	assert.Equal(t, a.Schedule.Lanes, b.Schedule.Lanes)
}

func TestBuildRejectsDomainWithoutPlacement(t *testing.T) {
	b := ir.NewBuilder()
	sig := b.Const(1, types.Signal(types.PayloadFloat, types.UnitScalar))
	_, err := b.Broadcast(sig, types.Field(types.PayloadFloat, types.UnitScalar, 5))
	require.NoError(t, err)

	_, err = sched.Build(b.Finish())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no placement generator")
}

func TestValidateCleanProgram(t *testing.T) {
	for _, p := range []*patch.Patch{delayPatch(), ringPatch()} {
		prog := compile(t, p)
		assert.Empty(t, sched.Validate(prog))
	}
}

func TestValidateCatchesWriteBeforeRead(t *testing.T) {
	prog := compile(t, delayPatch())

	// Hoist the deferred write ahead of the read.
	steps := prog.Schedule.Steps
	require.Equal(t, sched.OpWriteState, steps[2].Op)
	steps[1], steps[2] = steps[2], steps[1]

	errs := sched.Validate(prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "written at step")
}

func TestFormatGolden(t *testing.T) {
	g := goldie.New(t)

	t.Run("unit_delay", func(t *testing.T) {
		g.Assert(t, "unit_delay", []byte(sched.Format(compile(t, delayPatch()))))
	})
	t.Run("ring", func(t *testing.T) {
		g.Assert(t, "ring", []byte(sched.Format(compile(t, ringPatch()))))
	})
}
