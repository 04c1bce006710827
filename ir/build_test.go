package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/types"
)

func TestBuilderEmitsInOrder(t *testing.T) {
	b := NewBuilder()
	scalar := types.Signal(types.PayloadFloat, types.UnitScalar)

	c := b.Const(2, scalar)
	d := b.Const(3, scalar)
	sum := b.Zip(KernelAdd, scalar, c, d)

	mod := b.Finish()
	require.Len(t, mod.Exprs, 3)
	assert.Equal(t, Handle(2), sum)
	assert.True(t, mod.Type(sum).Equal(scalar))

	zip, ok := mod.Exprs[sum].Kind.(SigZip)
	require.True(t, ok)
	assert.Equal(t, []Handle{c, d}, zip.Args)
}

func TestBroadcastNeedsInstance(t *testing.T) {
	b := NewBuilder()
	sig := b.Const(1, types.Signal(types.PayloadFloat, types.UnitScalar))

	_, err := b.Broadcast(sig, types.CanonicalType{
		Payload: types.PayloadFloat,
		Card:    types.Many,
	})
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.MissingInstanceContext, d.Code)
}

func TestBroadcastInheritsInstanceContext(t *testing.T) {
	b := NewBuilder()
	field := types.Field(types.PayloadFloat, types.UnitNormalized, 2)
	_, err := b.Place(BasisLine, 8, field)
	require.NoError(t, err)

	sig := b.Const(1, types.Signal(types.PayloadFloat, types.UnitScalar))
	h, err := b.Broadcast(sig, types.CanonicalType{
		Payload: types.PayloadFloat,
		Card:    types.Many,
	})
	require.NoError(t, err)

	// The placement generator left instance 2 in scope.
	assert.Equal(t, types.Instance(2), b.Type(h).Instance)
}

func TestBroadcastRejectsSignalTarget(t *testing.T) {
	b := NewBuilder()
	sig := b.Const(1, types.Signal(types.PayloadFloat, types.UnitScalar))

	_, err := b.Broadcast(sig, types.Signal(types.PayloadFloat, types.UnitScalar))
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.InvalidCardinality, d.Code)
}

func TestPlaceNeedsDomainIdentity(t *testing.T) {
	b := NewBuilder()
	_, err := b.Place(BasisCircle, 8, types.CanonicalType{
		Payload: types.PayloadVec2,
		Card:    types.Many,
	})
	require.Error(t, err)
}

func TestStateAllocation(t *testing.T) {
	b := NewBuilder()
	scalar := types.Signal(types.PayloadFloat, types.UnitScalar)

	s0 := b.AllocState(0)
	s1 := b.AllocState(2.5)
	assert.Equal(t, StateSlot(0), s0)
	assert.Equal(t, StateSlot(1), s1)

	in := b.Const(5, scalar)
	out := b.ReadState(s1, scalar)
	b.WriteState(s1, in)

	mod := b.Finish()
	require.Len(t, mod.States, 2)
	assert.Equal(t, 2.5, mod.States[1].Init)
	require.Len(t, mod.Writes, 1)
	assert.Equal(t, in, mod.Writes[0].Value)

	read, ok := mod.Exprs[out].Kind.(SigStateRead)
	require.True(t, ok)
	assert.Equal(t, s1, read.Slot)
}
