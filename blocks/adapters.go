package blocks

import (
	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Adapters are ordinary unary blocks that double as automatic
// conversions. Every one is cardinality polymorphic: the compiler
// splices the same contract into signal and field edges alike.

type adapterDef struct {
	typ       string
	from, to  types.Unit
	kernel    ir.Kernel
	priority  int
	stability block.Stability
}

var adapterDefs = []adapterDef{
	{"deg_to_rad", types.UnitDegrees, types.UnitRadians, ir.KernelDegToRad, 10, block.Stable},
	{"rad_to_deg", types.UnitRadians, types.UnitDegrees, ir.KernelRadToDeg, 10, block.Stable},
	{"phase_to_rad", types.UnitPhase, types.UnitRadians, ir.KernelPhaseToRad, 10, block.Stable},
	{"rad_to_phase", types.UnitRadians, types.UnitPhase, ir.KernelRadToPhase, 10, block.Stable},
	{"ms_to_sec", types.UnitMilliseconds, types.UnitSeconds, ir.KernelMsToSec, 10, block.Stable},
	{"sec_to_ms", types.UnitSeconds, types.UnitMilliseconds, ir.KernelSecToMs, 10, block.Stable},
	// Reinterpretations between plain scalars and constrained units
	// rank below the exact conversions.
	{"norm_to_scalar", types.UnitNormalized, types.UnitScalar, ir.KernelId, 8, block.Stable},
	{"saturate", types.UnitScalar, types.UnitNormalized, ir.KernelSaturate, 5, block.Stable},
	{"wrap01", types.UnitScalar, types.UnitPhase, ir.KernelWrap01, 5, block.Stable},
}

func adapterContracts() []*block.Contract {
	cs := make([]*block.Contract, 0, len(adapterDefs))
	for _, d := range adapterDefs {
		cs = append(cs, &block.Contract{
			Type: d.typ,
			Inputs: []block.PortSpec{{
				Name: "in",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        d.from,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Outputs: []block.PortSpec{{
				Name: "out",
				Type: types.Pattern{
					Payload:     types.PayloadFloat,
					Unit:        d.to,
					CardVar:     varCard,
					InstanceVar: varInstance,
				},
			}},
			Lower: kernelLower(d.kernel),
		})
	}
	return cs
}

func adapterSpecs() []block.AdapterSpec {
	specs := make([]block.AdapterSpec, 0, len(adapterDefs))
	for _, d := range adapterDefs {
		specs = append(specs, block.AdapterSpec{
			BlockType:   d.typ,
			FromPayload: types.PayloadFloat,
			FromUnit:    d.from,
			ToPayload:   types.PayloadFloat,
			ToUnit:      d.to,
			Priority:    d.priority,
			Stability:   d.stability,
		})
	}
	return specs
}
