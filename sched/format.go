package sched

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Format renders a compiled program as a human-readable listing. The
// output is deterministic for a given program and is what the golden
// tests and the CLI print.
func Format(p *Program) string {
	var sb strings.Builder
	sc := &p.Schedule
	fmt.Fprintf(&sb, "program: steps=%d slots=%d lanes=%d states=%d sinks=%d\n",
		len(sc.Steps), len(sc.Slots), sc.Lanes, len(sc.States), len(p.IR.Sinks))

	insts := make([]int, 0, len(p.Counts))
	for inst := range p.Counts {
		insts = append(insts, int(inst))
	}
	sort.Ints(insts)
	for _, inst := range insts {
		fmt.Fprintf(&sb, "domain @%d elems=%d\n", inst, p.Counts[types.Instance(inst)])
	}

	for i, st := range sc.States {
		fmt.Fprintf(&sb, "state s%d init=%g\n", i, st.Init)
	}
	for i := range sc.Slots {
		info := &sc.Slots[i]
		fmt.Fprintf(&sb, "slot v%d off=%d stride=%d elems=%d type=%s\n",
			i, info.Offset, info.Stride, info.Elems, info.Type)
	}
	for i, st := range sc.Steps {
		switch st.Op {
		case OpEvalSig, OpEvalField:
			fmt.Fprintf(&sb, "%3d: %s %%%d %s -> v%d\n", i, st.Op, st.Node, describe(p.IR, st.Node), st.Dst)
		case OpReadState:
			fmt.Fprintf(&sb, "%3d: readState s%d -> v%d\n", i, st.State, st.Dst)
		case OpWriteState:
			fmt.Fprintf(&sb, "%3d: writeState v%d -> s%d\n", i, st.Src, st.State)
		}
	}
	for _, sink := range p.IR.Sinks {
		ports := make([]string, 0, len(sink.Inputs))
		for name := range sink.Inputs {
			ports = append(ports, name)
		}
		sort.Strings(ports)
		parts := make([]string, len(ports))
		for i, name := range ports {
			parts[i] = fmt.Sprintf("%s=%%%d", name, sink.Inputs[name])
		}
		fmt.Fprintf(&sb, "sink %s %s\n", sink.Block, strings.Join(parts, " "))
	}
	return sb.String()
}

// describe renders one node's operation.
func describe(mod *ir.Module, h ir.Handle) string {
	switch kind := mod.Exprs[h].Kind.(type) {
	case ir.SigConst:
		return fmt.Sprintf("const(%g)", kind.Value)
	case ir.SigTime:
		switch kind.Source {
		case ir.TimeMs:
			return "time(ms)"
		case ir.TimeSeconds:
			return "time(s)"
		default:
			return "time(dt)"
		}
	case ir.SigMap:
		return fmt.Sprintf("map(%s, %%%d)", kind.Kernel, kind.Arg)
	case ir.SigZip:
		return fmt.Sprintf("zip(%s, %s)", kind.Kernel, handles(kind.Args))
	case ir.SigReduce:
		return fmt.Sprintf("reduce(%s, %%%d)", kind.Op, kind.Field)
	case ir.SigStateRead:
		return fmt.Sprintf("readState(s%d)", kind.Slot)
	case ir.FieldBroadcast:
		return fmt.Sprintf("broadcast(%%%d)", kind.Value)
	case ir.FieldZip:
		return fmt.Sprintf("fieldZip(%s, %s)", kind.Kernel, handles(kind.Args))
	case ir.FieldPlace:
		return fmt.Sprintf("place(%s, %d)", kind.Basis, kind.Count)
	case ir.Construct:
		return fmt.Sprintf("construct(%s)", handles(kind.Components))
	default:
		return "node"
	}
}

func handles(hs []ir.Handle) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = fmt.Sprintf("%%%d", h)
	}
	return strings.Join(parts, ", ")
}
