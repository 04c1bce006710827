package sched

import (
	"fmt"

	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Validate checks a compiled program's structural invariants: slot
// layout bounds, dependency order, cardinality agreement between zip
// arguments, and write-after-read ordering for state slots. Failures
// are defect-class diagnostics: a program that came out of the
// pipeline should never trip them.
func Validate(p *Program) diag.List {
	var errs diag.List
	report := func(code diag.Code, format string, args ...any) {
		errs = append(errs, &diag.Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	mod := p.IR
	if len(mod.Exprs) != len(mod.Types) {
		report(diag.InvalidCardinality, "expression arena and type table diverge: %d vs %d", len(mod.Exprs), len(mod.Types))
		return errs
	}
	if len(p.NodeSlot) != len(mod.Exprs) {
		report(diag.InvalidCardinality, "node slot table covers %d of %d nodes", len(p.NodeSlot), len(mod.Exprs))
		return errs
	}

	for i := range p.Schedule.Slots {
		info := &p.Schedule.Slots[i]
		if info.Offset+info.Stride*info.Elems > p.Schedule.Lanes {
			report(diag.InvalidCardinality, "slot v%d exceeds the lane array (%d lanes)", i, p.Schedule.Lanes)
		}
	}

	for i := range mod.Exprs {
		h := ir.Handle(i)
		t := mod.Types[h]
		for _, arg := range nodeArgs(&mod.Exprs[h]) {
			if arg >= h {
				report(diag.InvalidCardinality, "node %d references node %d out of dependency order", h, arg)
				continue
			}
			at := mod.Types[arg]
			if at.Card == types.Many && t.Card == types.Many && at.Instance != t.Instance {
				report(diag.InvalidCardinality, "node %d combines domains %d and %d", h, t.Instance, at.Instance)
			}
		}
		switch mod.Exprs[h].Kind.(type) {
		case ir.FieldBroadcast, ir.FieldZip, ir.FieldPlace:
			if t.Card != types.Many {
				report(diag.InvalidCardinality, "field node %d typed as signal %s", h, t)
			}
			if t.Instance == types.NoInstance {
				report(diag.MissingInstanceContext, "field node %d has no domain identity", h)
			}
		}
	}

	// Every write must come after every read of the same state slot.
	lastRead := make(map[int32]int)
	firstWrite := make(map[int32]int)
	for i, st := range p.Schedule.Steps {
		switch st.Op {
		case OpReadState:
			lastRead[st.State] = i
		case OpWriteState:
			if _, seen := firstWrite[st.State]; !seen {
				firstWrite[st.State] = i
			}
			if int(st.State) >= len(p.Schedule.States) {
				report(diag.InvalidCardinality, "write targets unknown state slot %d", st.State)
			}
		}
	}
	for slot, w := range firstWrite {
		if r, ok := lastRead[slot]; ok && w < r {
			report(diag.InvalidCardinality, "state slot %d written at step %d before its read at step %d", slot, w, r)
		}
	}

	return errs
}

// nodeArgs lists a node's operand handles.
func nodeArgs(e *ir.Expr) []ir.Handle {
	switch kind := e.Kind.(type) {
	case ir.SigMap:
		return []ir.Handle{kind.Arg}
	case ir.SigZip:
		return kind.Args
	case ir.SigReduce:
		return []ir.Handle{kind.Field}
	case ir.FieldBroadcast:
		return []ir.Handle{kind.Value}
	case ir.FieldZip:
		return kind.Args
	case ir.Construct:
		return kind.Components
	default:
		return nil
	}
}
