package blocks

import (
	"fmt"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

func fieldContracts() []*block.Contract {
	return []*block.Contract{
		{
			Type: "broadcast",
			Inputs: []block.PortSpec{{
				Name: "in",
				Type: types.Pattern{
					PayloadVar: varPayload,
					UnitVar:    varUnit,
					Card:       types.One,
				},
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					PayloadVar:  varPayload,
					UnitVar:     varUnit,
					Card:        types.Many,
					InstanceVar: varInstance,
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				h, err := b.Broadcast(call.In["in"], call.OutType["out"])
				if err != nil {
					return nil, err
				}
				return map[string]ir.Handle{"out": h}, nil
			},
		},
		{
			Type: "reduce",
			Inputs: []block.PortSpec{{
				Name: "in",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					UnitVar:     varUnit,
					Card:        types.Many,
					InstanceVar: varInstance,
				},
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload: types.PayloadFloat,
					UnitVar: varUnit,
					Card:    types.One,
				},
			}},
			Lower: lowerReduce,
		},
		{
			Type:            "place_line",
			CreatesInstance: true,
			Outputs: []block.PortSpec{{
				Name: "t",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        types.UnitNormalized,
					Card:        types.Many,
					InstanceVar: varInstance,
					Range:       &types.NumRange{Lo: 0, Hi: 1},
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				h, err := b.Place(ir.BasisLine, call.Params.Int("count", 8), call.OutType["t"])
				if err != nil {
					return nil, err
				}
				return map[string]ir.Handle{"t": h}, nil
			},
		},
		{
			Type:            "place_circle",
			CreatesInstance: true,
			Outputs: []block.PortSpec{{
				Name: "position",
				Type: types.Pattern{
					Payload:     types.PayloadVec2,
					Unit:        types.UnitScalar,
					Card:        types.Many,
					InstanceVar: varInstance,
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				out := call.OutType["position"]
				unit, err := b.Place(ir.BasisCircle, call.Params.Int("count", 8), out)
				if err != nil {
					return nil, err
				}
				radius := b.Const(call.Params.Float("radius", 1),
					types.Signal(types.PayloadFloat, types.UnitScalar))
				h := b.ZipFields(ir.KernelMul, out, unit, radius)
				return map[string]ir.Handle{"position": h}, nil
			},
		},
		{
			Type: "color",
			Inputs: []block.PortSpec{
				normIn("r", 1), normIn("g", 1), normIn("b", 1), normIn("a", 1),
			},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload:     types.PayloadColor,
					Unit:        types.UnitNormalized,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				out := call.OutType["out"]
				h := b.Construct(out,
					call.In["r"], call.In["g"], call.In["b"], call.In["a"])
				return map[string]ir.Handle{"out": h}, nil
			},
		},
	}
}

// normIn builds a normalized float input sharing the contract's
// cardinality and instance variables.
func normIn(name string, def float64) block.PortSpec {
	return block.PortSpec{
		Name: name,
		Type: types.Pattern{
			Payload:     types.PayloadFloat,
			Unit:        types.UnitNormalized,
			CardVar:     varCard,
			InstanceVar: varInstance,
		},
		Default: block.DefaultOf(def),
	}
}

func lowerReduce(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
	var op ir.ReduceOp
	switch name := call.Params.String("op", "sum"); name {
	case "sum":
		op = ir.ReduceSum
	case "mean":
		op = ir.ReduceMean
	case "min":
		op = ir.ReduceMin
	case "max":
		op = ir.ReduceMax
	default:
		return nil, fmt.Errorf("block %q: unknown reduce op %q", call.BlockID, name)
	}
	h := b.Reduce(op, call.In["in"], call.OutType["out"])
	return map[string]ir.Handle{"out": h}, nil
}

func renderContracts() []*block.Contract {
	return []*block.Contract{
		{
			Type:   "render_points",
			Render: true,
			Inputs: []block.PortSpec{
				{
					Name: "position",
					Type: types.Pattern{
						Payload:     types.PayloadVec2,
						Unit:        types.UnitScalar,
						Card:        types.Many,
						InstanceVar: varInstance,
					},
				},
				{
					Name: "color",
					Type: types.Pattern{
						Payload:     types.PayloadColor,
						Unit:        types.UnitNormalized,
						Card:        types.Many,
						InstanceVar: varInstance,
					},
					Optional: true,
				},
				{
					Name:    "size",
					Type:    types.Exact(types.Signal(types.PayloadFloat, types.UnitScalar)),
					Default: block.DefaultOf(4),
				},
			},
			Lower: func(b *ir.Builder, call block.LowerCall) (map[string]ir.Handle, error) {
				b.Sink(call.BlockID, call.In)
				return nil, nil
			},
		},
	}
}
