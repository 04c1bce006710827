package front

import (
	"fmt"

	"tlog.app/go/tlog"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/types"
)

// Lower walks the typed patch in dependency order and invokes each
// block contract's lowering function once, threading the accumulating
// build context. Errors here are defect-class: a typed patch that
// fails to lower means normalization did not uphold an invariant
// lowering depends on, so the whole compile fails loudly.
func Lower(reg *block.Registry, tp *TypedPatch) (*ir.Module, error) {
	order := topoOrder(tp)
	b := ir.NewBuilder()

	// Source handle per producing output port.
	outs := make(map[PortKey]ir.Handle)
	// Incoming edge per input port.
	inEdge := make(map[PortKey]*PortKey)
	for i := range tp.Edges {
		e := &tp.Edges[i]
		src := PortKey{Block: tp.Index[e.From.Block], Port: e.From.Port, Dir: DirOut}
		dst := PortKey{Block: tp.Index[e.To.Block], Port: e.To.Port, Dir: DirIn}
		s := src
		inEdge[dst] = &s
	}

	for _, bi := range order {
		blk := &tp.Blocks[bi]
		c, ok := reg.Lookup(blk.Type)
		if !ok {
			return nil, fmt.Errorf("lower %s: no contract for type %q", blk.ID, blk.Type)
		}

		// Propagate the instance context flowing past this block so
		// field producers without field inputs inherit it rather than
		// inventing their own.
		for _, in := range c.Inputs {
			if t, ok := tp.Ports[PortKey{Block: bi, Port: in.Name, Dir: DirIn}]; ok {
				if t.Card == types.Many {
					b.SetInstance(t.Instance)
				}
			}
		}
		for _, out := range c.Outputs {
			if t, ok := tp.Ports[PortKey{Block: bi, Port: out.Name, Dir: DirOut}]; ok {
				if t.Card == types.Many {
					b.SetInstance(t.Instance)
				}
			}
		}

		call := block.LowerCall{
			BlockID: blk.ID,
			Params:  blk.Params,
			In:      make(map[string]ir.Handle, len(c.Inputs)),
			InType:  make(map[string]types.CanonicalType, len(c.Inputs)),
			OutType: make(map[string]types.CanonicalType, len(c.Outputs)),
		}
		for _, in := range c.Inputs {
			key := PortKey{Block: bi, Port: in.Name, Dir: DirIn}
			src, wired := inEdge[key]
			if !wired {
				if in.Optional {
					continue
				}
				return nil, fmt.Errorf("lower %s: input %q has no source after normalization", blk.ID, in.Name)
			}
			h, ok := outs[*src]
			if !ok {
				return nil, fmt.Errorf("lower %s: input %q source not lowered yet", blk.ID, in.Name)
			}
			call.In[in.Name] = h
			call.InType[in.Name] = tp.Ports[key]
		}
		for _, out := range c.Outputs {
			call.OutType[out.Name] = tp.Ports[PortKey{Block: bi, Port: out.Name, Dir: DirOut}]
		}

		res, err := c.Lower(b, call)
		if err != nil {
			if d, ok := err.(*diag.Diagnostic); ok {
				if d.Block == "" {
					d.Block = blk.ID
				}
				return nil, d
			}
			return nil, fmt.Errorf("lower %s: %w", blk.ID, err)
		}
		for _, out := range c.Outputs {
			h, ok := res[out.Name]
			if !ok {
				return nil, fmt.Errorf("lower %s: contract returned no node for output %q", blk.ID, out.Name)
			}
			outs[PortKey{Block: bi, Port: out.Name, Dir: DirOut}] = h
		}
	}

	mod := b.Finish()
	tlog.V("compile").Printw("lowered",
		"exprs", len(mod.Exprs), "states", len(mod.States), "sinks", len(mod.Sinks))
	return mod, nil
}

// topoOrder returns block indices in dependency order. Independent
// subgraphs are ordered by block index, so the order is stable for a
// given normalized patch.
func topoOrder(tp *TypedPatch) []int {
	n := len(tp.Blocks)
	indeg := make([]int, n)
	adj := make([][]int, n)
	for _, e := range tp.Edges {
		from, okF := tp.Index[e.From.Block]
		to, okT := tp.Index[e.To.Block]
		if !okF || !okT {
			continue
		}
		adj[from] = append(adj[from], to)
		indeg[to]++
	}

	order := make([]int, 0, n)
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		// Smallest index first keeps ties deterministic.
		min := 0
		for i := 1; i < len(ready); i++ {
			if ready[i] < ready[min] {
				min = i
			}
		}
		cur := ready[min]
		ready = append(ready[:min], ready[min+1:]...)
		order = append(order, cur)
		for _, m := range adj[cur] {
			indeg[m]--
			if indeg[m] == 0 {
				ready = append(ready, m)
			}
		}
	}
	return order
}
