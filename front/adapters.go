package front

import (
	"fmt"

	"tlog.app/go/tlog"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/types"
)

// Adapter and default-source contracts expose exactly one data input
// named "in" (none for constants) and one output named "out".
const (
	adapterIn  = "in"
	adapterOut = "out"
)

func edgeRef(e *patch.Edge) *diag.EdgeRef {
	return &diag.EdgeRef{
		FromBlock: e.From.Block, FromPort: e.From.Port,
		ToBlock: e.To.Block, ToPort: e.To.Port,
	}
}

// materializeAdapters rewrites every mismatched edge into a chain
// source → adapter₁ → … → adapterₙ → target, or reports why it cannot.
//
// The signal→field case with otherwise matching payload and unit is
// resolved by the broadcast adapter alone; it is by far the most
// common conversion. Unit or payload disagreement is bridged by the
// shortest registered chain, applied at the source's cardinality, with
// a trailing broadcast when the target side is a field.
func materializeAdapters(reg *block.Registry, tp *TypedPatch, mismatched map[int]bool) diag.List {
	var errs diag.List
	newEdges := make([]patch.Edge, 0, len(tp.Edges))
	seq := 0

	for ei := range tp.Edges {
		e := tp.Edges[ei]
		if !mismatched[ei] {
			newEdges = append(newEdges, e)
			continue
		}
		srcT, okS := tp.Ports[PortKey{Block: tp.Index[e.From.Block], Port: e.From.Port, Dir: DirOut}]
		dstT, okD := tp.Ports[PortKey{Block: tp.Index[e.To.Block], Port: e.To.Port, Dir: DirIn}]
		if !okS || !okD {
			// Endpoint failed to resolve; already reported.
			newEdges = append(newEdges, e)
			continue
		}

		switch {
		case srcT.Card == types.Many && dstT.Card == types.Many && srcT.Instance != dstT.Instance:
			errs = append(errs, &diag.Diagnostic{
				Code: diag.TypeMismatch,
				Edge: edgeRef(&e),
				Message: fmt.Sprintf("fields over different domains cannot be combined: %s vs %s; reduce or re-place one side",
					srcT, dstT),
			})
			newEdges = append(newEdges, e)
			continue
		case srcT.Card == types.Many && dstT.Card == types.One:
			errs = append(errs, &diag.Diagnostic{
				Code: diag.NoAdapterFound,
				Edge: edgeRef(&e),
				Message: fmt.Sprintf("no adapter from %s to %s: collapsing a field needs an explicit reduce block",
					srcT, dstT),
			})
			newEdges = append(newEdges, e)
			continue
		}

		needBroadcast := srcT.Card == types.One && dstT.Card == types.Many
		var chain []block.AdapterSpec
		if srcT.Payload != dstT.Payload || srcT.Unit != dstT.Unit {
			var found bool
			chain, found = reg.FindChain(srcT.Payload, srcT.Unit, dstT.Payload, dstT.Unit)
			if !found {
				errs = append(errs, &diag.Diagnostic{
					Code:    diag.NoAdapterFound,
					Edge:    edgeRef(&e),
					Message: fmt.Sprintf("no conversion chain from %s to %s", srcT, dstT),
				})
				newEdges = append(newEdges, e)
				continue
			}
		}
		if needBroadcast && reg.BroadcastType() == "" {
			errs = append(errs, &diag.Diagnostic{
				Code:    diag.NoAdapterFound,
				Edge:    edgeRef(&e),
				Message: fmt.Sprintf("no broadcast adapter registered for %s to %s", srcT, dstT),
			})
			newEdges = append(newEdges, e)
			continue
		}

		splice := func(blockType string, inT, outT types.CanonicalType, prev patch.PortRef) patch.PortRef {
			id := fmt.Sprintf("~adapter%d.%s", seq, blockType)
			seq++
			bi := len(tp.Blocks)
			tp.Blocks = append(tp.Blocks, patch.Block{ID: id, Type: blockType})
			tp.Index[id] = bi
			tp.Ports[PortKey{Block: bi, Port: adapterIn, Dir: DirIn}] = inT
			tp.Ports[PortKey{Block: bi, Port: adapterOut, Dir: DirOut}] = outT
			newEdges = append(newEdges, patch.Edge{
				From: prev,
				To:   patch.PortRef{Block: id, Port: adapterIn},
				Role: patch.RoleAdapter,
			})
			return patch.PortRef{Block: id, Port: adapterOut}
		}

		prev := e.From
		curT := srcT
		for _, a := range chain {
			inT, outT := curT, curT
			inT.Payload, inT.Unit = a.FromPayload, a.FromUnit
			outT.Payload, outT.Unit = a.ToPayload, a.ToUnit
			prev = splice(a.BlockType, inT, outT, prev)
			curT = outT
		}
		if needBroadcast {
			prev = splice(reg.BroadcastType(), curT, dstT, prev)
		}
		newEdges = append(newEdges, patch.Edge{From: prev, To: e.To, Role: patch.RoleAdapter})
		tlog.V("compile").Printw("adapters inserted",
			"edge", edgeRef(&e).String(), "chain", len(chain), "broadcast", needBroadcast)
	}

	tp.Edges = newEdges
	return errs
}

// materializeDefaults wires a constant-producing source block into
// every still-unconnected input port that declares a default value.
func materializeDefaults(reg *block.Registry, tp *TypedPatch) diag.List {
	connected := make(map[PortKey]bool, len(tp.Edges))
	for _, e := range tp.Edges {
		if bi, ok := tp.Index[e.To.Block]; ok {
			connected[PortKey{Block: bi, Port: e.To.Port, Dir: DirIn}] = true
		}
	}

	var errs diag.List
	n := len(tp.Blocks) // adapters and defaults never need defaults themselves
	for bi := 0; bi < n; bi++ {
		b := tp.Blocks[bi]
		c, ok := reg.Lookup(b.Type)
		if !ok {
			continue
		}
		for _, in := range c.Inputs {
			key := PortKey{Block: bi, Port: in.Name, Dir: DirIn}
			if in.Default == nil || connected[key] {
				continue
			}
			t, ok := tp.Ports[key]
			if !ok {
				continue // unresolved, already reported
			}
			id := fmt.Sprintf("~default.%s.%s", b.ID, in.Name)
			di := len(tp.Blocks)
			tp.Blocks = append(tp.Blocks, patch.Block{
				ID:     id,
				Type:   reg.ConstType(),
				Params: patch.Params{"value": *in.Default},
			})
			tp.Index[id] = di
			tp.Ports[PortKey{Block: di, Port: adapterOut, Dir: DirOut}] = t
			tp.Edges = append(tp.Edges, patch.Edge{
				From: patch.PortRef{Block: id, Port: adapterOut},
				To:   patch.PortRef{Block: b.ID, Port: in.Name},
				Role: patch.RoleDefault,
			})
		}
	}
	return errs
}
