// Package sched linearizes an IR module into an executable program:
// an ordered list of steps over flat f64 value lanes, plus persistent
// state slot descriptors. The schedule is data-independent: once
// compiled, every frame runs the same steps in the same order.
package sched

import "github.com/glowkit/patchc/ir"
import "github.com/glowkit/patchc/types"

// StepOp selects what one step does.
type StepOp uint8

const (
	// OpEvalSig evaluates a signal expression into its value slot.
	OpEvalSig StepOp = iota
	// OpEvalField evaluates a field expression into its value slot.
	OpEvalField
	// OpReadState copies a state slot's current value into a value
	// slot, exposing the previous frame's value.
	OpReadState
	// OpWriteState copies a value slot back into a state slot. Write
	// steps run after every same-frame read of the slot.
	OpWriteState
)

// String returns the op name.
func (op StepOp) String() string {
	switch op {
	case OpEvalSig:
		return "evalSig"
	case OpEvalField:
		return "evalField"
	case OpReadState:
		return "readState"
	case OpWriteState:
		return "writeState"
	default:
		return "step"
	}
}

// Slot indexes the schedule's value slot table.
type Slot int32

// SlotInfo locates one value slot in the flat lane array.
type SlotInfo struct {
	Offset int // first lane
	Stride int // lanes per element
	Elems  int // 1 for signals, domain size for fields
	Type   types.CanonicalType
}

// Step is one schedule entry.
type Step struct {
	Op    StepOp
	Node  ir.Handle // evaluated node (eval and read steps)
	Dst   Slot      // destination value slot (eval and read steps)
	State int32     // state slot (read and write steps)
	Src   Slot      // source value slot (write steps)
}

// Schedule is the ordered step list plus slot layout.
type Schedule struct {
	Steps  []Step
	Slots  []SlotInfo
	Lanes  int // total f64 lanes all value slots occupy
	States []ir.StateDecl
}

// StateSlotCount returns the number of persistent state slots.
func (s *Schedule) StateSlotCount() int { return len(s.States) }

// Program is the immutable output of a successful compile. It is
// re-created wholesale on any patch edit; slots are always reallocated
// from zero, never reused across compiles.
type Program struct {
	Schedule Schedule
	IR       *ir.Module
	// NodeSlot maps every IR node to its value slot.
	NodeSlot []Slot
	// Counts gives each domain instance's element count.
	Counts map[types.Instance]int
}

// SlotOf returns the slot layout for a node.
func (p *Program) SlotOf(h ir.Handle) SlotInfo {
	return p.Schedule.Slots[p.NodeSlot[h]]
}
