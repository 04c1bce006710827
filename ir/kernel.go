package ir

import "math"

// Kernel is a pure scalar function applied lane-wise by map and zip
// nodes. Kernels are total over float64; NaN/Inf propagation from
// user-authored math is a data problem, not a framework error.
type Kernel uint8

const (
	KernelAdd Kernel = iota
	KernelSub
	KernelMul
	KernelDiv
	KernelMin
	KernelMax
	KernelNeg
	KernelAbs
	KernelFloor
	KernelFract
	KernelSin
	KernelCos
	KernelPow
	KernelClamp      // clamp(x, lo, hi)
	KernelMix        // mix(a, b, t)
	KernelSmoothstep // smoothstep(lo, hi, x)
	KernelWrap01     // wrap into [0, 1)
	KernelDegToRad
	KernelRadToDeg
	KernelPhaseToRad // phase · 2π
	KernelRadToPhase // radians / 2π wrapped into [0, 1)
	KernelMsToSec
	KernelSecToMs
	KernelHash // hash(value, seed) in [0, 1)
	KernelId       // identity, for unit reinterpretation adapters
	KernelSaturate // clamp into [0, 1]
)

// String returns the kernel name.
func (k Kernel) String() string {
	names := [...]string{
		"add", "sub", "mul", "div", "min", "max", "neg", "abs",
		"floor", "fract", "sin", "cos", "pow", "clamp", "mix",
		"smoothstep", "wrap01", "deg2rad", "rad2deg", "phase2rad",
		"rad2phase", "ms2sec", "sec2ms", "hash", "id", "saturate",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "kernel"
}

// Arity returns the number of arguments the kernel consumes.
func (k Kernel) Arity() int {
	switch k {
	case KernelNeg, KernelAbs, KernelFloor, KernelFract, KernelSin,
		KernelCos, KernelWrap01, KernelDegToRad, KernelRadToDeg,
		KernelPhaseToRad, KernelRadToPhase, KernelMsToSec, KernelSecToMs,
		KernelId, KernelSaturate:
		return 1
	case KernelClamp, KernelMix, KernelSmoothstep:
		return 3
	default:
		return 2
	}
}

// Eval applies the kernel to args. Args beyond the arity are ignored.
func (k Kernel) Eval(args []float64) float64 {
	switch k {
	case KernelAdd:
		return args[0] + args[1]
	case KernelSub:
		return args[0] - args[1]
	case KernelMul:
		return args[0] * args[1]
	case KernelDiv:
		return args[0] / args[1]
	case KernelMin:
		return math.Min(args[0], args[1])
	case KernelMax:
		return math.Max(args[0], args[1])
	case KernelNeg:
		return -args[0]
	case KernelAbs:
		return math.Abs(args[0])
	case KernelFloor:
		return math.Floor(args[0])
	case KernelFract:
		return args[0] - math.Floor(args[0])
	case KernelSin:
		return math.Sin(args[0])
	case KernelCos:
		return math.Cos(args[0])
	case KernelPow:
		return math.Pow(args[0], args[1])
	case KernelClamp:
		return math.Min(math.Max(args[0], args[1]), args[2])
	case KernelMix:
		return args[0] + (args[1]-args[0])*args[2]
	case KernelSmoothstep:
		t := (args[2] - args[0]) / (args[1] - args[0])
		t = math.Min(math.Max(t, 0), 1)
		return t * t * (3 - 2*t)
	case KernelWrap01:
		return args[0] - math.Floor(args[0])
	case KernelDegToRad:
		return args[0] * (math.Pi / 180)
	case KernelRadToDeg:
		return args[0] * (180 / math.Pi)
	case KernelPhaseToRad:
		return args[0] * (2 * math.Pi)
	case KernelRadToPhase:
		p := args[0] / (2 * math.Pi)
		return p - math.Floor(p)
	case KernelMsToSec:
		return args[0] / 1000
	case KernelSecToMs:
		return args[0] * 1000
	case KernelHash:
		return HashUnit(args[0], args[1])
	case KernelId:
		return args[0]
	case KernelSaturate:
		return math.Min(math.Max(args[0], 0), 1)
	default:
		return 0
	}
}

// HashUnit deterministically mixes (value, seed) into [0, 1). The same
// pair yields the same output on every frame; the output depends on
// every bit of both inputs.
func HashUnit(value, seed float64) float64 {
	x := math.Float64bits(value) ^ (math.Float64bits(seed)*0x9E3779B97F4A7C15 + 0x7F4A7C15)
	x ^= x >> 33
	x *= 0xFF51AFD7ED558CCD
	x ^= x >> 33
	x *= 0xC4CEB9FE1A85EC53
	x ^= x >> 33
	return float64(x>>11) / float64(uint64(1)<<53)
}
