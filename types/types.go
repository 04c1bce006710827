// Package types defines the canonical type system for patch ports.
//
// A CanonicalType has four orthogonal axes: the payload (what kind of
// value), the unit (semantic tag on numeric payloads), the extent
// (cardinality plus, for fields, the identity of the indexed domain the
// field ranges over) and the temporality. Two ports may be wired
// directly only if every axis matches exactly; any mismatch requires a
// materialized conversion block.
package types

import "strconv"

// Payload is the kind of value a port carries.
type Payload uint8

const (
	PayloadFloat Payload = iota
	PayloadInt
	PayloadBool
	PayloadVec2
	PayloadVec3
	PayloadColor
	PayloadShape
	PayloadProjection
)

// String returns the payload name.
func (p Payload) String() string {
	switch p {
	case PayloadFloat:
		return "float"
	case PayloadInt:
		return "int"
	case PayloadBool:
		return "bool"
	case PayloadVec2:
		return "vec2"
	case PayloadVec3:
		return "vec3"
	case PayloadColor:
		return "color"
	case PayloadShape:
		return "shape"
	case PayloadProjection:
		return "projection"
	default:
		return "payload(" + strconv.Itoa(int(p)) + ")"
	}
}

// Lanes returns the number of f64 lanes one value of this payload
// occupies in a slot. Shapes are opaque sink-side descriptors and have
// no lane representation.
func (p Payload) Lanes() int {
	switch p {
	case PayloadFloat, PayloadInt, PayloadBool:
		return 1
	case PayloadVec2:
		return 2
	case PayloadVec3:
		return 3
	case PayloadColor:
		return 4
	case PayloadProjection:
		return 16
	default:
		return 0
	}
}

// Unit is a semantic tag on numeric payloads.
type Unit uint8

const (
	UnitScalar Unit = iota
	UnitPhase        // wraps in [0, 1)
	UnitRadians
	UnitDegrees
	UnitNormalized // clamped to [0, 1]
	UnitMilliseconds
	UnitSeconds
	UnitCount
)

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case UnitScalar:
		return "scalar"
	case UnitPhase:
		return "phase"
	case UnitRadians:
		return "radians"
	case UnitDegrees:
		return "degrees"
	case UnitNormalized:
		return "normalized"
	case UnitMilliseconds:
		return "ms"
	case UnitSeconds:
		return "s"
	case UnitCount:
		return "count"
	default:
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
}

// Cardinality distinguishes a single time-varying value (a signal)
// from an array indexed by a domain instance (a field).
type Cardinality uint8

const (
	One Cardinality = iota
	Many
)

// String returns the cardinality name.
func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// Temporality describes when a value is re-evaluated. Only continuous
// (every frame) is in use; other kinds are reserved.
type Temporality uint8

const (
	Continuous Temporality = iota
)

// Instance identifies which indexed domain a field ranges over. Two
// fields must share instance identity to be combined pointwise.
// NoInstance marks signals and not-yet-bound fields.
type Instance uint32

// NoInstance is the zero instance identity.
const NoInstance Instance = 0

// NumRange is an advisory numeric contract on a type, e.g. "clamped to
// [0, 1]". It is metadata only and never participates in unification.
type NumRange struct {
	Lo, Hi float64
	Wrap   bool // wraps at Hi back to Lo (e.g. phase)
}

// CanonicalType is the immutable resolved type of a port or IR node.
type CanonicalType struct {
	Payload  Payload
	Unit     Unit
	Card     Cardinality
	Instance Instance // meaningful only when Card == Many
	Temporal Temporality
	Range    *NumRange // advisory, excluded from equality
}

// Signal returns a cardinality-one continuous type.
func Signal(p Payload, u Unit) CanonicalType {
	return CanonicalType{Payload: p, Unit: u, Card: One}
}

// Field returns a cardinality-many continuous type over the given
// domain instance.
func Field(p Payload, u Unit, inst Instance) CanonicalType {
	return CanonicalType{Payload: p, Unit: u, Card: Many, Instance: inst}
}

// Equal reports whether two types match on every axis. The advisory
// Range is ignored.
func (t CanonicalType) Equal(o CanonicalType) bool {
	return t.Payload == o.Payload &&
		t.Unit == o.Unit &&
		t.Card == o.Card &&
		t.Instance == o.Instance &&
		t.Temporal == o.Temporal
}

// Lanes returns the per-element lane count of the payload.
func (t CanonicalType) Lanes() int { return t.Payload.Lanes() }

// String renders the type, e.g. "float·phase" for a signal or
// "field<vec2·scalar>@3" for a field over instance 3.
func (t CanonicalType) String() string {
	base := t.Payload.String() + "·" + t.Unit.String()
	if t.Card == Many {
		s := "field<" + base + ">"
		if t.Instance != NoInstance {
			s += "@" + strconv.FormatUint(uint64(t.Instance), 10)
		}
		return s
	}
	return base
}
