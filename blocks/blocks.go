// Package blocks is the builtin block catalog: sources, math, fields,
// stateful blocks, render sinks, and the unit conversion adapters the
// compiler inserts automatically. Register wires the whole catalog
// into a fresh block.Registry; embedders can register additional
// contracts alongside it.
package blocks

import (
	"fmt"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Contract-scoped type variables. Numbering restarts for every
// contract; sharing a variable across ports of one contract is what
// ties those ports' axes together.
const (
	varPayload  types.Var = 1
	varUnit     types.Var = 2
	varCard     types.Var = 3
	varInstance types.Var = 4
)

// Register installs every builtin contract and adapter into reg.
func Register(reg *block.Registry) error {
	groups := [][]*block.Contract{
		sourceContracts(),
		mathContracts(),
		fieldContracts(),
		stateContracts(),
		renderContracts(),
		adapterContracts(),
	}
	for _, group := range groups {
		for _, c := range group {
			if err := reg.Register(c); err != nil {
				return err
			}
		}
	}
	for _, a := range adapterSpecs() {
		if err := reg.RegisterAdapter(a); err != nil {
			return err
		}
	}
	reg.SetConstType("const")
	reg.SetBroadcastType("broadcast")
	return nil
}

// floatIn builds a float input port polymorphic in unit, cardinality
// and instance, tied to the contract's shared variables.
func floatIn(name string, def *float64) block.PortSpec {
	return block.PortSpec{
		Name: name,
		Type: types.Pattern{
			Payload:     types.PayloadFloat,
			UnitVar:     varUnit,
			CardVar:     varCard,
			InstanceVar: varInstance,
		},
		Default: def,
	}
}

// mapAt applies a unary kernel at the cardinality of t.
func mapAt(b *ir.Builder, k ir.Kernel, arg ir.Handle, t types.CanonicalType) ir.Handle {
	if t.Card == types.Many {
		return b.FieldMap(k, arg, t)
	}
	return b.Map(k, arg, t)
}

// zipAt applies an n-ary kernel at the cardinality of t.
func zipAt(b *ir.Builder, k ir.Kernel, t types.CanonicalType, args ...ir.Handle) ir.Handle {
	if t.Card == types.Many {
		return b.ZipFields(k, t, args...)
	}
	return b.Zip(k, t, args...)
}

func sourceContracts() []*block.Contract {
	return []*block.Contract{
		{
			Type: "const",
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					PayloadVar:  varPayload,
					UnitVar:     varUnit,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Lower: lowerConst,
		},
		{
			Type: "angle_deg",
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Exact(types.Signal(types.PayloadFloat, types.UnitDegrees)),
			}},
			Lower: lowerConst,
		},
		{
			Type: "time",
			Outputs: []block.PortSpec{
				{
					Name: "ms",
					Type: types.Exact(types.Signal(types.PayloadFloat, types.UnitMilliseconds)),
				},
				{
					Name: "seconds",
					Type: types.Exact(types.Signal(types.PayloadFloat, types.UnitSeconds)),
				},
			},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				return map[string]ir.Handle{
					"ms":      b.Time(ir.TimeMs, call.OutType["ms"]),
					"seconds": b.Time(ir.TimeSeconds, call.OutType["seconds"]),
				}, nil
			},
		},
	}
}

// lowerConst materializes the block's "value" param at whatever type
// the output resolved to: multi-lane payloads replicate the value per
// component, field outputs broadcast the signal over the edge's
// domain.
func lowerConst(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
	out := call.OutType["out"]
	v := call.Params.Float("value", 0)

	sig := out
	sig.Card = types.One
	sig.Instance = types.NoInstance

	var h ir.Handle
	if n := out.Payload.Lanes(); n > 1 {
		comp := b.Const(v, types.Signal(types.PayloadFloat, out.Unit))
		comps := make([]ir.Handle, n)
		for i := range comps {
			comps[i] = comp
		}
		h = b.Construct(sig, comps...)
	} else {
		h = b.Const(v, sig)
	}

	if out.Card == types.Many {
		var err error
		h, err = b.Broadcast(h, out)
		if err != nil {
			return nil, err
		}
	}
	return map[string]ir.Handle{"out": h}, nil
}

func mathContracts() []*block.Contract {
	return []*block.Contract{
		binaryContract("add", ir.KernelAdd, 0),
		binaryContract("multiply", ir.KernelMul, 1),
		{
			Type:   "scale",
			Inputs: []block.PortSpec{floatIn("in", nil)},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					UnitVar:     varUnit,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				out := call.OutType["out"]
				factor := b.Const(call.Params.Float("factor", 1),
					types.Signal(types.PayloadFloat, types.UnitScalar))
				h := zipAt(b, ir.KernelMul, out, call.In["in"], factor)
				return map[string]ir.Handle{"out": h}, nil
			},
		},
		{
			Type: "osc",
			Inputs: []block.PortSpec{{
				Name: "phase",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitPhase,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitScalar,
					CardVar:     varCard,
					InstanceVar: varInstance,
					Range:       &types.NumRange{Lo: -1, Hi: 1},
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				out := call.OutType["out"]
				rad := out
				rad.Unit = types.UnitRadians
				h := mapAt(b, ir.KernelSin, mapAt(b, ir.KernelPhaseToRad, call.In["phase"], rad), out)
				return map[string]ir.Handle{"out": h}, nil
			},
		},
		{
			Type: "sine",
			Inputs: []block.PortSpec{{
				Name: "in",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitRadians,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitScalar,
					CardVar:     varCard,
					InstanceVar: varInstance,
					Range:       &types.NumRange{Lo: -1, Hi: 1},
				},
			}},
			Lower: kernelLower(ir.KernelSin),
		},
		{
			Type: "hash",
			Inputs: []block.PortSpec{{
				Name: "in",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitScalar,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitNormalized,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				out := call.OutType["out"]
				seed := b.Const(call.Params.Float("seed", 0),
					types.Signal(types.PayloadFloat, types.UnitScalar))
				h := zipAt(b, ir.KernelHash, out, call.In["in"], seed)
				return map[string]ir.Handle{"out": h}, nil
			},
		},
	}
}

// binaryContract builds an elementwise two-input float contract whose
// unit, cardinality and instance flow through unchanged.
func binaryContract(typ string, k ir.Kernel, def float64) *block.Contract {
	return &block.Contract{
		Type: typ,
		Inputs: []block.PortSpec{
			floatIn("a", block.DefaultOf(def)),
			floatIn("b", block.DefaultOf(def)),
		},
		Outputs: []block.PortSpec{{
			Name: "out",
			Type: types.Pattern{
				Payload:     types.PayloadFloat,
				UnitVar:     varUnit,
				CardVar:     varCard,
				InstanceVar: varInstance,
			},
		}},
		Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
			out := call.OutType["out"]
			h := zipAt(b, k, out, call.In["a"], call.In["b"])
			return map[string]ir.Handle{"out": h}, nil
		},
	}
}

// kernelLower is the one-input one-output lowering shared by the pure
// unary blocks and every adapter contract.
func kernelLower(k ir.Kernel) block.LowerFn {
	return func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
		out := call.OutType["out"]
		in, ok := call.In["in"]
		if !ok {
			return nil, fmt.Errorf("block %q: input %q not lowered", call.BlockID, "in")
		}
		return map[string]ir.Handle{"out": mapAt(b, k, in, out)}, nil
	}
}
