package types

import "fmt"

// Axis names one of the orthogonal type axes for mismatch reporting.
type Axis uint8

const (
	AxisPayload Axis = iota
	AxisUnit
	AxisCardinality
	AxisInstance
	AxisTemporality
)

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case AxisPayload:
		return "payload"
	case AxisUnit:
		return "unit"
	case AxisCardinality:
		return "cardinality"
	case AxisInstance:
		return "instance"
	case AxisTemporality:
		return "temporality"
	default:
		return "axis"
	}
}

// MismatchError reports a unification failure on a concrete axis.
type MismatchError struct {
	Axis Axis
	A, B CanonicalType
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: %s vs %s", e.Axis, e.A, e.B)
}

// Unify checks structural equality of two concrete types axis by axis.
// On success it returns the common type with advisory ranges merged
// (a's range wins if both are set). The first differing axis is
// reported; free type variables are handled by the normalizer's
// constraint solver, not here.
func Unify(a, b CanonicalType) (CanonicalType, error) {
	if a.Payload != b.Payload {
		return CanonicalType{}, &MismatchError{Axis: AxisPayload, A: a, B: b}
	}
	if a.Unit != b.Unit {
		return CanonicalType{}, &MismatchError{Axis: AxisUnit, A: a, B: b}
	}
	if a.Card != b.Card {
		return CanonicalType{}, &MismatchError{Axis: AxisCardinality, A: a, B: b}
	}
	if a.Instance != b.Instance {
		return CanonicalType{}, &MismatchError{Axis: AxisInstance, A: a, B: b}
	}
	if a.Temporal != b.Temporal {
		return CanonicalType{}, &MismatchError{Axis: AxisTemporality, A: a, B: b}
	}
	out := a
	if out.Range == nil {
		out.Range = b.Range
	}
	return out, nil
}

// Assignable reports whether a value of type from may flow directly
// into a port of type to. Exact match only: every conversion must be
// visible as a materialized block.
func Assignable(from, to CanonicalType) bool {
	return from.Equal(to)
}

// Var is a contract-scoped type variable. Variables with the same id
// within one block contract resolve to the same value; zero means the
// axis is concrete.
type Var uint16

// Pattern is a port type as declared by a block contract: each axis is
// either a concrete value or a free variable bound per block instance
// by the normalizer. Temporality is always concrete.
type Pattern struct {
	Payload     Payload
	PayloadVar  Var
	Unit        Unit
	UnitVar     Var
	Card        Cardinality
	CardVar     Var
	Instance    Instance
	InstanceVar Var
	Temporal    Temporality
	Range       *NumRange
}

// Exact returns a pattern with every axis pinned to t.
func Exact(t CanonicalType) Pattern {
	return Pattern{
		Payload:  t.Payload,
		Unit:     t.Unit,
		Card:     t.Card,
		Instance: t.Instance,
		Temporal: t.Temporal,
		Range:    t.Range,
	}
}

// Concrete returns the canonical type if the pattern has no free
// variables.
func (p Pattern) Concrete() (CanonicalType, bool) {
	if p.PayloadVar != 0 || p.UnitVar != 0 || p.CardVar != 0 || p.InstanceVar != 0 {
		return CanonicalType{}, false
	}
	return CanonicalType{
		Payload:  p.Payload,
		Unit:     p.Unit,
		Card:     p.Card,
		Instance: p.Instance,
		Temporal: p.Temporal,
		Range:    p.Range,
	}, true
}
