package runtime

import (
	"math"

	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/sched"
)

// maxKernelArity bounds per-step argument staging so evaluation never
// allocates. Kernel arities top out at 3 (clamp, mix, smoothstep).
const maxKernelArity = 4

func evalNode(prog *sched.Program, lanes []float64, step *sched.Step, timestampMs, dt float64) {
	dst := &prog.Schedule.Slots[step.Dst]
	out := lanes[dst.Offset : dst.Offset+dst.Stride*dst.Elems]

	switch k := prog.IR.Exprs[step.Node].Kind.(type) {
	case ir.SigConst:
		out[0] = k.Value

	case ir.SigTime:
		switch k.Source {
		case ir.TimeMs:
			out[0] = timestampMs
		case ir.TimeSeconds:
			out[0] = timestampMs / 1000
		case ir.TimeDelta:
			out[0] = dt
		}

	case ir.SigMap:
		src := &prog.Schedule.Slots[prog.NodeSlot[k.Arg]]
		var args [maxKernelArity]float64
		for lane := 0; lane < dst.Stride; lane++ {
			args[0] = lanes[src.Offset+lane]
			out[lane] = k.Kernel.Eval(args[:1])
		}

	case ir.SigZip:
		var args [maxKernelArity]float64
		for lane := 0; lane < dst.Stride; lane++ {
			for i, arg := range k.Args {
				src := &prog.Schedule.Slots[prog.NodeSlot[arg]]
				off := src.Offset
				if src.Stride > 1 {
					off += lane
				}
				args[i] = lanes[off]
			}
			out[lane] = k.Kernel.Eval(args[:len(k.Args)])
		}

	case ir.SigReduce:
		src := &prog.Schedule.Slots[prog.NodeSlot[k.Field]]
		for lane := 0; lane < dst.Stride; lane++ {
			acc := lanes[src.Offset+lane]
			for e := 1; e < src.Elems; e++ {
				v := lanes[src.Offset+e*src.Stride+lane]
				switch k.Op {
				case ir.ReduceSum, ir.ReduceMean:
					acc += v
				case ir.ReduceMin:
					acc = math.Min(acc, v)
				case ir.ReduceMax:
					acc = math.Max(acc, v)
				}
			}
			if k.Op == ir.ReduceMean {
				acc /= float64(src.Elems)
			}
			out[lane] = acc
		}

	case ir.FieldBroadcast:
		src := &prog.Schedule.Slots[prog.NodeSlot[k.Value]]
		for e := 0; e < dst.Elems; e++ {
			for lane := 0; lane < dst.Stride; lane++ {
				out[e*dst.Stride+lane] = lanes[src.Offset+lane]
			}
		}

	case ir.FieldZip:
		var args [maxKernelArity]float64
		for e := 0; e < dst.Elems; e++ {
			for lane := 0; lane < dst.Stride; lane++ {
				for i, arg := range k.Args {
					src := &prog.Schedule.Slots[prog.NodeSlot[arg]]
					off := src.Offset
					if src.Elems > 1 {
						off += e * src.Stride
					}
					if src.Stride > 1 {
						off += lane
					}
					args[i] = lanes[off]
				}
				out[e*dst.Stride+lane] = k.Kernel.Eval(args[:len(k.Args)])
			}
		}

	case ir.FieldPlace:
		n := k.Count
		switch k.Basis {
		case ir.BasisLine:
			for e := 0; e < n; e++ {
				t := 0.0
				if n > 1 {
					t = float64(e) / float64(n-1)
				}
				out[e] = t
			}
		case ir.BasisCircle:
			for e := 0; e < n; e++ {
				theta := 2 * math.Pi * float64(e) / float64(n)
				out[e*2] = math.Cos(theta)
				out[e*2+1] = math.Sin(theta)
			}
		}

	case ir.Construct:
		for e := 0; e < dst.Elems; e++ {
			for i, comp := range k.Components {
				src := &prog.Schedule.Slots[prog.NodeSlot[comp]]
				off := src.Offset
				if src.Elems > 1 {
					off += e * src.Stride
				}
				out[e*dst.Stride+i] = lanes[off]
			}
		}
	}
}
