// Package front normalizes a raw patch into a fully typed patch: it
// assigns dense block indices, rejects same-frame dependency cycles,
// solves type constraints across the whole graph, materializes adapter
// blocks where wired ports disagree, and materializes default-source
// blocks for unwired inputs with declared defaults. It then lowers the
// typed patch into IR by invoking each block contract's lowering
// function in dependency order.
package front

import (
	"sort"

	"tlog.app/go/tlog"

	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/types"
)

// Direction distinguishes a block's input ports from its outputs.
type Direction uint8

const (
	DirIn Direction = iota
	DirOut
)

// PortKey addresses one port of one indexed block.
type PortKey struct {
	Block int
	Port  string
	Dir   Direction
}

// NormalizedPatch is the patch after index assignment and adapter or
// default-source materialization. Blocks are referenced by dense
// integer index from here on.
type NormalizedPatch struct {
	Blocks []patch.Block
	Index  map[string]int
	Edges  []patch.Edge
}

// TypedPatch is a normalized patch whose every live port carries a
// resolved canonical type.
type TypedPatch struct {
	NormalizedPatch
	Ports map[PortKey]types.CanonicalType
}

// Patch re-exports the normalized graph as an authorable patch,
// preserving edge roles. Normalizing the result again reaches a fixed
// point: no further adapters or defaults are inserted.
func (tp *TypedPatch) Patch() *patch.Patch {
	p := &patch.Patch{
		Blocks: append([]patch.Block(nil), tp.Blocks...),
		Edges:  append([]patch.Edge(nil), tp.Edges...),
	}
	return p
}

// Normalize runs the full pipeline. It returns either a fully typed
// patch or a non-empty diagnostic list, never both. Diagnostics of the
// solve and adapter passes accumulate; duplicate ids and cycles
// short-circuit the later passes, which assume a valid DAG.
func Normalize(reg *block.Registry, p *patch.Patch) (*TypedPatch, diag.List) {
	np, errs := index(p)
	if len(errs) > 0 {
		return nil, errs
	}
	if cyc := detectCycle(np); cyc != nil {
		return nil, diag.List{cyc}
	}

	s, errs := newSolver(reg, np)
	if len(errs) > 0 {
		return nil, errs
	}
	s.run()

	tp, errs := s.resolvePorts()
	errs = append(errs, materializeAdapters(reg, tp, s.mismatched)...)
	errs = append(errs, materializeDefaults(reg, tp)...)
	if len(errs) > 0 {
		return nil, errs
	}
	tlog.V("compile").Printw("normalized",
		"blocks", len(tp.Blocks), "edges", len(tp.Edges), "ports", len(tp.Ports))
	return tp, nil
}

// index assigns dense block indices and reports duplicate ids.
func index(p *patch.Patch) (*NormalizedPatch, diag.List) {
	np := &NormalizedPatch{
		Blocks: append([]patch.Block(nil), p.Blocks...),
		Index:  make(map[string]int, len(p.Blocks)),
		Edges:  append([]patch.Edge(nil), p.Edges...),
	}
	var errs diag.List
	for i, b := range np.Blocks {
		if _, dup := np.Index[b.ID]; dup {
			errs = append(errs, &diag.Diagnostic{
				Code:    diag.DuplicateBlockID,
				Block:   b.ID,
				Message: "block id used more than once",
			})
			continue
		}
		np.Index[b.ID] = i
	}
	return np, errs
}

// detectCycle rejects same-frame dependency cycles. State-bearing
// blocks carry their cross-frame back edge internally (split into a
// read and a deferred write at lowering), so the wiring graph itself
// must be a DAG. The first cycle found is reported with its full block
// set, in wire order.
func detectCycle(np *NormalizedPatch) *diag.Diagnostic {
	adj := make([][]int, len(np.Blocks))
	for _, e := range np.Edges {
		from, okF := np.Index[e.From.Block]
		to, okT := np.Index[e.To.Block]
		if !okF || !okT {
			continue // dangling refs surface as solver errors
		}
		adj[from] = append(adj[from], to)
	}
	for i := range adj {
		sort.Ints(adj[i])
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]uint8, len(np.Blocks))
	stack := make([]int, 0, len(np.Blocks))

	var cycle []int
	var visit func(int) bool
	visit = func(n int) bool {
		color[n] = gray
		stack = append(stack, n)
		for _, m := range adj[n] {
			if color[m] == gray {
				// Back edge: the cycle is the stack segment from m.
				for i, v := range stack {
					if v == m {
						cycle = append(cycle, stack[i:]...)
						break
					}
				}
				return true
			}
			if color[m] == white && visit(m) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}
	for i := range np.Blocks {
		if color[i] == white && visit(i) {
			ids := make([]string, len(cycle))
			for j, v := range cycle {
				ids[j] = np.Blocks[v].ID
			}
			return &diag.Diagnostic{
				Code:    diag.CycleDetected,
				Cycle:   ids,
				Message: "same-frame dependency cycle",
			}
		}
	}
	return nil
}
