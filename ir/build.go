package ir

import (
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/types"
)

// Builder accumulates a Module during lowering. It carries the
// instance context: the domain identity currently flowing through the
// traversal, which field-producing blocks without field inputs inherit
// instead of inventing their own.
type Builder struct {
	mod      Module
	instance types.Instance
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetInstance updates the instance context. The frontend sets it from
// each block's resolved field ports before invoking the block's
// lowering function.
func (b *Builder) SetInstance(inst types.Instance) {
	if inst != types.NoInstance {
		b.instance = inst
	}
}

// Instance returns the current instance context.
func (b *Builder) Instance() types.Instance { return b.instance }

func (b *Builder) emit(kind ExprKind, t types.CanonicalType) Handle {
	h := Handle(len(b.mod.Exprs))
	b.mod.Exprs = append(b.mod.Exprs, Expr{Kind: kind})
	b.mod.Types = append(b.mod.Types, t)
	return h
}

// Const emits a constant signal of the given type.
func (b *Builder) Const(v float64, t types.CanonicalType) Handle {
	return b.emit(SigConst{Value: v}, t)
}

// Time emits a time-read signal.
func (b *Builder) Time(src TimeSource, t types.CanonicalType) Handle {
	return b.emit(SigTime{Source: src}, t)
}

// Map emits a unary kernel application at signal cardinality.
func (b *Builder) Map(k Kernel, arg Handle, t types.CanonicalType) Handle {
	return b.emit(SigMap{Kernel: k, Arg: arg}, t)
}

// Zip emits an n-ary kernel application at signal cardinality.
func (b *Builder) Zip(k Kernel, t types.CanonicalType, args ...Handle) Handle {
	return b.emit(SigZip{Kernel: k, Args: args}, t)
}

// FieldMap emits a unary kernel application elementwise over a field.
func (b *Builder) FieldMap(k Kernel, arg Handle, t types.CanonicalType) Handle {
	return b.emit(FieldZip{Kernel: k, Args: []Handle{arg}}, t)
}

// ZipFields emits an n-ary kernel application elementwise over fields,
// with per-frame signals among the arguments broadcast implicitly.
func (b *Builder) ZipFields(k Kernel, t types.CanonicalType, args ...Handle) Handle {
	return b.emit(FieldZip{Kernel: k, Args: args}, t)
}

// Broadcast lifts a signal to a field. When t carries no instance the
// builder's inherited instance context is used; if none is available
// either, lowering reports a MissingInstanceContext defect.
func (b *Builder) Broadcast(sig Handle, t types.CanonicalType) (Handle, error) {
	if t.Card != types.Many {
		return 0, &diag.Diagnostic{
			Code:    diag.InvalidCardinality,
			Message: "broadcast target must be a field, got " + t.String(),
		}
	}
	if t.Instance == types.NoInstance {
		t.Instance = b.instance
	}
	if t.Instance == types.NoInstance {
		return 0, &diag.Diagnostic{
			Code:    diag.MissingInstanceContext,
			Message: "broadcast to " + t.String() + " with no domain identity in scope",
		}
	}
	return b.emit(FieldBroadcast{Value: sig}, t), nil
}

// Reduce folds a field into a signal.
func (b *Builder) Reduce(op ReduceOp, field Handle, t types.CanonicalType) Handle {
	return b.emit(SigReduce{Op: op, Field: field}, t)
}

// Construct packs components into a composite payload.
func (b *Builder) Construct(t types.CanonicalType, components ...Handle) Handle {
	return b.emit(Construct{Components: components}, t)
}

// Place emits a layout basis generator for a fresh domain instance.
// t must be a field type carrying the instance the solver assigned to
// the placement block.
func (b *Builder) Place(basis PlacementBasis, count int, t types.CanonicalType) (Handle, error) {
	if t.Card != types.Many || t.Instance == types.NoInstance {
		return 0, &diag.Diagnostic{
			Code:    diag.MissingInstanceContext,
			Message: "placement output " + t.String() + " lacks a domain identity",
		}
	}
	if count < 1 {
		count = 1
	}
	b.instance = t.Instance
	return b.emit(FieldPlace{Basis: basis, Count: count}, t), nil
}

// AllocState declares a persistent state slot with an initial value.
func (b *Builder) AllocState(init float64) StateSlot {
	s := StateSlot(len(b.mod.States))
	b.mod.States = append(b.mod.States, StateDecl{Init: init})
	return s
}

// ReadState emits a read of a state slot's previous-frame value.
func (b *Builder) ReadState(s StateSlot, t types.CanonicalType) Handle {
	return b.emit(SigStateRead{Slot: s}, t)
}

// WriteState schedules v to be captured into s at end of frame, after
// all same-frame reads of the slot.
func (b *Builder) WriteState(s StateSlot, v Handle) {
	b.mod.Writes = append(b.mod.Writes, StateWrite{Slot: s, Value: v})
}

// Sink records a terminal render block's inputs.
func (b *Builder) Sink(blockID string, inputs map[string]Handle) {
	b.mod.Sinks = append(b.mod.Sinks, Sink{Block: blockID, Inputs: inputs})
}

// Type returns the resolved type of an already-emitted node.
func (b *Builder) Type(h Handle) types.CanonicalType {
	return b.mod.Types[h]
}

// Finish returns the accumulated module. The builder must not be used
// afterwards.
func (b *Builder) Finish() *Module {
	return &b.mod
}
