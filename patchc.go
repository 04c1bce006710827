// Package patchc compiles node-graph patches into deterministic,
// allocation-stable frame programs.
//
// A patch is a graph of typed blocks wired port to port. Compilation
// runs in fixed stages: normalization resolves every port to a
// canonical type and materializes adapter and default-source blocks,
// lowering emits a flat expression IR, and scheduling linearizes the
// IR into an executable step list with a static value slot layout.
// The runtime package then executes one frame at a time against a
// timestamp.
//
// Example usage:
//
//	reg := block.NewRegistry()
//	blocks.Register(reg)
//
//	p := patch.New().
//	    AddBlock("phase1", "phase_accum", patch.Params{"frequency": 0.5}).
//	    AddBlock("osc1", "osc", nil).
//	    Connect("phase1", "out", "osc1", "phase")
//
//	prog, err := patchc.Compile(reg, p)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	st := runtime.NewState(prog)
//	pool := runtime.NewPool()
//	runtime.ExecuteFrame(prog, st, pool, 0)
//
// For staged access use Normalize, LowerPatch and BuildSchedule
// directly; Compile is their composition.
package patchc

import (
	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/front"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/sched"
)

// CompileOptions controls optional compilation behavior.
type CompileOptions struct {
	// Validate re-checks the scheduled program's structural
	// invariants after building. Compilation cannot normally produce
	// an invalid program; this is a debugging aid.
	Validate bool
}

// DefaultOptions returns the options Compile uses.
func DefaultOptions() CompileOptions {
	return CompileOptions{}
}

// Compile runs the full pipeline: normalize, lower, schedule.
// Normalization failures come back as a diag.List holding every
// diagnostic found; later stages fail fast on the first error.
func Compile(reg *block.Registry, p *patch.Patch) (*sched.Program, error) {
	return CompileWithOptions(reg, p, DefaultOptions())
}

// CompileWithOptions is Compile with explicit options.
func CompileWithOptions(reg *block.Registry, p *patch.Patch, opts CompileOptions) (*sched.Program, error) {
	tp, diags := front.Normalize(reg, p)
	if len(diags) > 0 {
		return nil, diags
	}
	mod, err := front.Lower(reg, tp)
	if err != nil {
		return nil, err
	}
	prog, err := sched.Build(mod)
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		if verr := sched.Validate(prog).Err(); verr != nil {
			return nil, verr
		}
	}
	return prog, nil
}

// Normalize resolves the patch's types and materializes adapter and
// default-source blocks. The returned typed patch is a new value; the
// input patch is never mutated.
func Normalize(reg *block.Registry, p *patch.Patch) (*front.TypedPatch, diag.List) {
	return front.Normalize(reg, p)
}

// LowerPatch lowers a normalized patch into expression IR.
func LowerPatch(reg *block.Registry, tp *front.TypedPatch) (*ir.Module, error) {
	return front.Lower(reg, tp)
}

// BuildSchedule linearizes an IR module into an executable program.
func BuildSchedule(mod *ir.Module) (*sched.Program, error) {
	return sched.Build(mod)
}
