package sched

import (
	"fmt"

	"tlog.app/go/tlog"

	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Build linearizes an IR module. Expressions already sit in dependency
// order in the arena, so scheduling is a single pass: every node gets
// a freshly allocated value slot in traversal order, state reads step
// at their natural position, and state writes are deferred to the end
// of the frame so every same-frame read sees the previous value.
func Build(mod *ir.Module) (*Program, error) {
	counts, err := domainCounts(mod)
	if err != nil {
		return nil, err
	}

	p := &Program{
		IR:       mod,
		NodeSlot: make([]Slot, len(mod.Exprs)),
		Counts:   counts,
	}
	sc := &p.Schedule
	sc.States = append([]ir.StateDecl(nil), mod.States...)

	for i := range mod.Exprs {
		h := ir.Handle(i)
		t := mod.Types[h]
		lanes := t.Lanes()
		if lanes == 0 {
			return nil, fmt.Errorf("node %d: payload %s has no lane representation", h, t.Payload)
		}
		elems := 1
		if t.Card == types.Many {
			elems = counts[t.Instance]
			if elems == 0 {
				return nil, fmt.Errorf("node %d: no placement generator for domain %d", h, t.Instance)
			}
		}

		slot := Slot(len(sc.Slots))
		sc.Slots = append(sc.Slots, SlotInfo{
			Offset: sc.Lanes,
			Stride: lanes,
			Elems:  elems,
			Type:   t,
		})
		sc.Lanes += lanes * elems
		p.NodeSlot[h] = slot

		switch kind := mod.Exprs[h].Kind.(type) {
		case ir.SigStateRead:
			sc.Steps = append(sc.Steps, Step{
				Op: OpReadState, Node: h, Dst: slot, State: int32(kind.Slot),
			})
		default:
			op := OpEvalSig
			if t.Card == types.Many {
				op = OpEvalField
			}
			sc.Steps = append(sc.Steps, Step{Op: op, Node: h, Dst: slot})
		}
	}

	for _, w := range mod.Writes {
		if int(w.Value) >= len(p.NodeSlot) {
			return nil, fmt.Errorf("state write into slot %d references unknown node %d", w.Slot, w.Value)
		}
		sc.Steps = append(sc.Steps, Step{
			Op: OpWriteState, State: int32(w.Slot), Src: p.NodeSlot[w.Value],
		})
	}

	tlog.V("compile").Printw("scheduled",
		"steps", len(sc.Steps), "lanes", sc.Lanes, "states", len(sc.States))
	return p, nil
}

// domainCounts collects each domain instance's element count from its
// placement generator.
func domainCounts(mod *ir.Module) (map[types.Instance]int, error) {
	counts := make(map[types.Instance]int)
	for i := range mod.Exprs {
		place, ok := mod.Exprs[i].Kind.(ir.FieldPlace)
		if !ok {
			continue
		}
		inst := mod.Types[i].Instance
		if prev, dup := counts[inst]; dup && prev != place.Count {
			return nil, fmt.Errorf("domain %d generated twice with different sizes (%d vs %d)", inst, prev, place.Count)
		}
		counts[inst] = place.Count
	}
	return counts, nil
}
