package block

import (
	"fmt"
	"sort"

	"github.com/glowkit/patchc/types"
)

// Stability ranks an adapter's maturity for chain tie-breaking.
type Stability uint8

const (
	Experimental Stability = iota
	Stable
)

// String returns the stability name.
func (s Stability) String() string {
	if s == Stable {
		return "stable"
	}
	return "experimental"
}

// AdapterSpec registers one conversion ("lens") block for automatic
// insertion. Adapters are pure and cardinality-preserving: they
// declare a payload/unit conversion and apply at whatever cardinality
// the mismatched edge carries. Cardinality promotion is handled
// separately by the broadcast fast path.
type AdapterSpec struct {
	BlockType   string
	FromPayload types.Payload
	FromUnit    types.Unit
	ToPayload   types.Payload
	ToUnit      types.Unit
	Priority    int
	Stability   Stability
}

// RegisterAdapter adds an adapter to the catalog. The referenced block
// type must be registered as a contract before compilation.
func (r *Registry) RegisterAdapter(a AdapterSpec) error {
	if a.BlockType == "" {
		return fmt.Errorf("adapter has empty block type")
	}
	r.adapters = append(r.adapters, a)
	return nil
}

// Adapters returns the registered adapter catalog.
func (r *Registry) Adapters() []AdapterSpec { return r.adapters }

type convKey struct {
	p types.Payload
	u types.Unit
}

// FindChain searches the adapter catalog for the shortest conversion
// chain from (fromPayload, fromUnit) to (toPayload, toUnit).
// Breadth-first, so shorter chains always win; among equal-length
// candidates out of one node the tie-break is declared priority
// (higher wins), then stability (stable over experimental), then
// lexicographic block type. The result is deterministic regardless of
// registration order.
func (r *Registry) FindChain(fromPayload types.Payload, fromUnit types.Unit, toPayload types.Payload, toUnit types.Unit) ([]AdapterSpec, bool) {
	const maxDepth = 4

	from := convKey{fromPayload, fromUnit}
	to := convKey{toPayload, toUnit}
	if from == to {
		return nil, true
	}

	adj := make(map[convKey][]AdapterSpec)
	for _, a := range r.adapters {
		k := convKey{a.FromPayload, a.FromUnit}
		adj[k] = append(adj[k], a)
	}
	for k := range adj {
		list := adj[k]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority > list[j].Priority
			}
			if list[i].Stability != list[j].Stability {
				return list[i].Stability > list[j].Stability
			}
			return list[i].BlockType < list[j].BlockType
		})
		adj[k] = list
	}

	type path struct {
		at    convKey
		chain []AdapterSpec
	}
	visited := map[convKey]bool{from: true}
	queue := []path{{at: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if len(cur.chain) >= maxDepth {
			continue
		}
		for _, a := range adj[cur.at] {
			next := convKey{a.ToPayload, a.ToUnit}
			if visited[next] {
				continue
			}
			chain := append(append([]AdapterSpec(nil), cur.chain...), a)
			if next == to {
				return chain, true
			}
			visited[next] = true
			queue = append(queue, path{at: next, chain: chain})
		}
	}
	return nil, false
}
