package blocks

import (
	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Stateful blocks are signal-only: each instance owns exactly one
// scalar state slot. Reads observe the previous frame's value; the
// scheduler defers every write past all same-frame reads, so feedback
// loops through these blocks are well defined.

func stateContracts() []*block.Contract {
	scalarSig := types.Exact(types.Signal(types.PayloadFloat, types.UnitScalar))
	return []*block.Contract{
		{
			Type:    "unit_delay",
			Inputs:  []block.PortSpec{{Name: "in", Type: scalarSig}},
			Outputs: []block.PortSpec{{Name: "out", Type: scalarSig}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				slot := b.AllocState(call.Params.Float("initial", 0))
				out := b.ReadState(slot, call.OutType["out"])
				b.WriteState(slot, call.In["in"])
				return map[string]ir.Handle{"out": out}, nil
			},
		},
		{
			Type:    "lag",
			Inputs:  []block.PortSpec{{Name: "in", Type: scalarSig}},
			Outputs: []block.PortSpec{{Name: "out", Type: scalarSig}},
			Lower:   lowerLag,
		},
		{
			Type: "phase_accum",
			Inputs: []block.PortSpec{{
				Name:    "frequency",
				Type:    scalarSig,
				Default: block.DefaultOf(1),
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload: types.PayloadFloat,
					Unit:    types.UnitPhase,
					Range:   &types.NumRange{Lo: 0, Hi: 1, Wrap: true},
				},
			}},
			Lower: lowerPhaseAccum,
		},
	}
}

// lowerLag is an exponential-style smoother: each frame the output
// moves toward the input by min(1, rate*dt) of the remaining gap. On
// the first frame dt is zero and the output holds its initial value.
func lowerLag(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
	out := call.OutType["out"]
	scalar := types.Signal(types.PayloadFloat, types.UnitScalar)

	slot := b.AllocState(call.Params.Float("initial", 0))
	prev := b.ReadState(slot, out)

	dt := b.Time(ir.TimeDelta, types.Signal(types.PayloadFloat, types.UnitSeconds))
	rate := b.Const(call.Params.Float("rate", 5), scalar)
	step := b.Zip(ir.KernelMul, scalar, rate, dt)
	one := b.Const(1, scalar)
	alpha := b.Zip(ir.KernelMin, scalar, one, step)

	next := b.Zip(ir.KernelMix, out, prev, call.In["in"], alpha)
	b.WriteState(slot, next)
	return map[string]ir.Handle{"out": next}, nil
}

// lowerPhaseAccum integrates frequency (Hz) into a phase that wraps in
// [0, 1). Resolution is data independent: the accumulator advances by
// frequency*dt and takes the fractional part every frame.
func lowerPhaseAccum(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
	out := call.OutType["out"]

	slot := b.AllocState(0)
	prev := b.ReadState(slot, out)

	dt := b.Time(ir.TimeDelta, types.Signal(types.PayloadFloat, types.UnitSeconds))
	inc := b.Zip(ir.KernelMul, out, call.In["frequency"], dt)
	sum := b.Zip(ir.KernelAdd, out, prev, inc)
	next := b.Map(ir.KernelFract, sum, out)

	b.WriteState(slot, next)
	return map[string]ir.Handle{"out": next}, nil
}
