// Package ir defines the intermediate representation the frontend
// lowers a typed patch into: a DAG of scalar ("signal") and array
// ("field") expression nodes plus persistent state slot declarations.
// The scheduler linearizes this DAG into an executable program.
package ir

import "github.com/glowkit/patchc/types"

// Handle references an expression node in a module's arena.
type Handle uint32

// StateSlot references a persistent state lane declared by a stateful
// block. State slots survive across frames; value slots do not.
type StateSlot uint32

// Expr is one expression node.
type Expr struct {
	Kind ExprKind
}

// ExprKind is the tagged union of expression node kinds.
type ExprKind interface {
	exprKind()
}

// SigConst is a constant scalar signal.
type SigConst struct {
	Value float64
}

func (SigConst) exprKind() {}

// TimeSource selects what a time-read produces.
type TimeSource uint8

const (
	// TimeMs is the frame timestamp in milliseconds.
	TimeMs TimeSource = iota
	// TimeSeconds is the frame timestamp in seconds.
	TimeSeconds
	// TimeDelta is the seconds elapsed since the previous frame,
	// zero on the very first frame.
	TimeDelta
)

// SigTime reads the frame clock.
type SigTime struct {
	Source TimeSource
}

func (SigTime) exprKind() {}

// SigMap applies a unary kernel to a signal, lane by lane.
type SigMap struct {
	Kernel Kernel
	Arg    Handle
}

func (SigMap) exprKind() {}

// SigZip applies an n-ary kernel to signals, lane by lane.
type SigZip struct {
	Kernel Kernel
	Args   []Handle
}

func (SigZip) exprKind() {}

// ReduceOp folds a field down to a signal.
type ReduceOp uint8

const (
	ReduceSum ReduceOp = iota
	ReduceMean
	ReduceMin
	ReduceMax
)

// String returns the reduce op name.
func (op ReduceOp) String() string {
	switch op {
	case ReduceSum:
		return "sum"
	case ReduceMean:
		return "mean"
	case ReduceMin:
		return "min"
	case ReduceMax:
		return "max"
	default:
		return "reduce"
	}
}

// SigReduce folds a field into a signal.
type SigReduce struct {
	Op    ReduceOp
	Field Handle
}

func (SigReduce) exprKind() {}

// SigStateRead reads a state slot's value as of the previous frame.
type SigStateRead struct {
	Slot StateSlot
}

func (SigStateRead) exprKind() {}

// FieldBroadcast lifts a per-frame signal to every element of the
// node's domain instance.
type FieldBroadcast struct {
	Value Handle
}

func (FieldBroadcast) exprKind() {}

// FieldZip applies an n-ary kernel elementwise across a field's
// domain. Arguments may be fields over the same instance or per-frame
// signals, which are read once per element.
type FieldZip struct {
	Kernel Kernel
	Args   []Handle
}

func (FieldZip) exprKind() {}

// PlacementBasis selects the layout a placement generator produces.
type PlacementBasis uint8

const (
	// BasisLine yields element parameter t in [0, 1] along a line.
	BasisLine PlacementBasis = iota
	// BasisCircle yields unit-circle vec2 positions.
	BasisCircle
)

// String returns the basis name.
func (b PlacementBasis) String() string {
	if b == BasisCircle {
		return "circle"
	}
	return "line"
}

// FieldPlace generates a layout basis field for a fresh domain
// instance of Count elements.
type FieldPlace struct {
	Basis PlacementBasis
	Count int
}

func (FieldPlace) exprKind() {}

// Construct packs component values into a composite payload (e.g. four
// normalized floats into a color). Works at either cardinality; at
// cardinality many every component must be a field over the node's
// instance or a per-frame signal.
type Construct struct {
	Components []Handle
}

func (Construct) exprKind() {}

// StateDecl declares one persistent state slot.
type StateDecl struct {
	Init float64
}

// StateWrite captures a computed value into a state slot. Writes are
// deferred by the scheduler to run after all same-frame reads.
type StateWrite struct {
	Slot  StateSlot
	Value Handle
}

// Sink records a terminal render block's resolved inputs. Sinks have
// no output slot; an external renderer reads the referenced slots
// after each frame.
type Sink struct {
	Block  string
	Inputs map[string]Handle
}

// Module is the lowered expression graph. Expressions are appended in
// dependency order: an expression only references lower handles.
type Module struct {
	Exprs  []Expr
	Types  []types.CanonicalType // parallel to Exprs
	States []StateDecl
	Writes []StateWrite
	Sinks  []Sink
}

// Type returns the resolved type of a node.
func (m *Module) Type(h Handle) types.CanonicalType {
	return m.Types[h]
}
