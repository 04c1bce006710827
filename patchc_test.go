package patchc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/patchc"
	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/blocks"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/runtime"
	"github.com/glowkit/patchc/sched"
)

func newRegistry(t testing.TB) *block.Registry {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, blocks.Register(reg))
	return reg
}

// scenePatch is a small but complete animated scene: a ring of points
// whose brightness breathes with an oscillator, wired with a unit
// mismatch the compiler must bridge.
func scenePatch() *patch.Patch {
	return patch.New().
		AddBlock("phase1", "phase_accum", patch.Params{"frequency": 0.5}).
		AddBlock("osc1", "osc", nil).
		AddBlock("bright", "saturate", nil).
		AddBlock("col", "color", nil).
		AddBlock("ring", "place_circle", patch.Params{"count": 16, "radius": 0.8}).
		AddBlock("out", "render_points", nil).
		Connect("phase1", "out", "osc1", "phase").
		Connect("osc1", "out", "bright", "in").
		Connect("bright", "out", "col", "r").
		Connect("ring", "position", "out", "position").
		Connect("col", "out", "out", "color")
}

func TestCompileScene(t *testing.T) {
	reg := newRegistry(t)

	prog, err := patchc.CompileWithOptions(reg, scenePatch(), patchc.CompileOptions{Validate: true})
	require.NoError(t, err)

	require.Len(t, prog.IR.Sinks, 1)
	assert.NotEmpty(t, prog.Schedule.Steps)
	require.Len(t, prog.Counts, 1)
	for _, n := range prog.Counts {
		assert.Equal(t, 16, n)
	}

	st := runtime.NewState(prog)
	pool := runtime.NewPool()
	for f := 0; f < 60; f++ {
		runtime.ExecuteFrame(prog, st, pool, float64(f)*1000/60)
	}

	pos, ok := runtime.SinkInput(prog, pool, "out", "position")
	require.True(t, ok)
	assert.Len(t, pos, 32)

	rgba, ok := runtime.SinkInput(prog, pool, "out", "color")
	require.True(t, ok)
	require.Len(t, rgba, 64, "color broadcast across the ring's domain")
	for e := 0; e < 16; e++ {
		assert.Equal(t, rgba[3], rgba[e*4+3], "alpha defaults uniformly")
		assert.GreaterOrEqual(t, rgba[e*4], 0.0)
		assert.LessOrEqual(t, rgba[e*4], 1.0)
	}
}

func TestCompileReportsAllDiagnostics(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("x", "warp_drive", nil).
		AddBlock("y", "flux_capacitor", nil)

	_, err := patchc.Compile(reg, p)
	require.Error(t, err)
	diags, ok := err.(diag.List)
	require.True(t, ok)
	assert.Len(t, diags, 2)
}

func TestCompileRejectsCycle(t *testing.T) {
	reg := newRegistry(t)
	p := patch.New().
		AddBlock("a", "add", nil).
		AddBlock("b", "add", nil).
		Connect("a", "out", "b", "a").
		Connect("b", "out", "a", "a")

	prog, err := patchc.Compile(reg, p)
	require.Error(t, err)
	assert.Nil(t, prog, "no partial program on failure")

	diags, ok := err.(diag.List)
	require.True(t, ok)
	assert.True(t, diags.Has(diag.CycleDetected))
}

func TestStagedPipelineMatchesCompile(t *testing.T) {
	reg := newRegistry(t)

	tp, diags := patchc.Normalize(reg, scenePatch())
	require.Empty(t, diags, "%v", diags.Err())
	mod, err := patchc.LowerPatch(reg, tp)
	require.NoError(t, err)
	staged, err := patchc.BuildSchedule(mod)
	require.NoError(t, err)

	direct, err := patchc.Compile(reg, scenePatch())
	require.NoError(t, err)

	assert.Equal(t, sched.Format(direct), sched.Format(staged))
}

func TestCompileFromYAML(t *testing.T) {
	reg := newRegistry(t)
	src := `
blocks:
  - id: line1
    type: place_line
    params:
      count: 8
  - id: n1
    type: norm_to_scalar
  - id: d1
    type: reduce
    params:
      op: mean
edges:
  - from: {block: line1, port: t}
    to: {block: n1, port: in}
  - from: {block: n1, port: out}
    to: {block: d1, port: in}
`
	p, err := patch.LoadYAML([]byte(src))
	require.NoError(t, err)

	prog, err := patchc.Compile(reg, p)
	require.NoError(t, err)

	st := runtime.NewState(prog)
	pool := runtime.NewPool()
	runtime.ExecuteFrame(prog, st, pool, 0)

	mean := runtime.Slot(prog, pool, prog.NodeSlot[len(prog.NodeSlot)-1])
	assert.InDelta(t, 0.5, mean[0], 1e-12, "mean of an even spread over [0, 1]")
}
