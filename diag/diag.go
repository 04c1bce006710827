// Package diag defines structured compile diagnostics. Every
// diagnostic carries a precise target (block, port or edge), never a
// bare string, so editors can attribute errors to graph elements.
package diag

import (
	"fmt"
	"strings"
)

// Code classifies a diagnostic.
type Code uint8

const (
	// DuplicateBlockID is an authoring error, fatal to compile.
	DuplicateBlockID Code = iota
	// CycleDetected reports a same-frame dependency cycle.
	CycleDetected
	// UnresolvedType reports a port whose type variable never got bound.
	UnresolvedType
	// TypeMismatch reports two unified types conflicting on a concrete axis.
	TypeMismatch
	// NoAdapterFound reports a mismatched edge with no conversion chain.
	NoAdapterFound
	// MissingInstanceContext reports a field-producing block lowered
	// without a resolvable domain identity. Internal invariant violation.
	MissingInstanceContext
	// InvalidCardinality reports a signal/field confusion surviving past
	// normalization. Internal invariant violation.
	InvalidCardinality
	// UnknownBlockType reports a block whose type (or a wired port name)
	// has no registered contract.
	UnknownBlockType
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case DuplicateBlockID:
		return "DuplicateBlockID"
	case CycleDetected:
		return "CycleDetected"
	case UnresolvedType:
		return "UnresolvedType"
	case TypeMismatch:
		return "TypeMismatch"
	case NoAdapterFound:
		return "NoAdapterFound"
	case MissingInstanceContext:
		return "MissingInstanceContext"
	case InvalidCardinality:
		return "InvalidCardinality"
	case UnknownBlockType:
		return "UnknownBlockType"
	default:
		return "Code(" + fmt.Sprint(uint8(c)) + ")"
	}
}

// Internal reports whether the code marks a compiler defect rather
// than a user-facing authoring error. Internal diagnostics mean a
// normalization invariant the later stages depend on was not upheld.
func (c Code) Internal() bool {
	return c == MissingInstanceContext || c == InvalidCardinality
}

// EdgeRef names an edge by its endpoint ports.
type EdgeRef struct {
	FromBlock, FromPort string
	ToBlock, ToPort     string
}

// String renders the edge as from.port -> to.port.
func (e EdgeRef) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.FromBlock, e.FromPort, e.ToBlock, e.ToPort)
}

// Diagnostic is one structured compile error.
type Diagnostic struct {
	Code    Code
	Block   string   // offending block id, if any
	Port    string   // offending port id, if any
	Edge    *EdgeRef // offending edge, if any
	Cycle   []string // full block set of a detected cycle
	Message string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	sb.WriteString(d.Code.String())
	switch {
	case d.Edge != nil:
		sb.WriteString(" at ")
		sb.WriteString(d.Edge.String())
	case d.Block != "" && d.Port != "":
		fmt.Fprintf(&sb, " at %s.%s", d.Block, d.Port)
	case d.Block != "":
		sb.WriteString(" at ")
		sb.WriteString(d.Block)
	case len(d.Cycle) > 0:
		sb.WriteString(" through ")
		sb.WriteString(strings.Join(d.Cycle, ", "))
	}
	if d.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(d.Message)
	}
	return sb.String()
}

// List accumulates diagnostics across normalizer passes.
type List []*Diagnostic

// Error implements the error interface over the whole list.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d compile errors:", len(l))
	for _, d := range l {
		sb.WriteString("\n\t")
		sb.WriteString(d.Error())
	}
	return sb.String()
}

// Has reports whether any diagnostic carries the given code.
func (l List) Has(c Code) bool {
	for _, d := range l {
		if d.Code == c {
			return true
		}
	}
	return false
}

// Err returns the list as an error, or nil when empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
