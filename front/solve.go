package front

import (
	"github.com/glowkit/patchc/block"
	"github.com/glowkit/patchc/diag"
	"github.com/glowkit/patchc/types"
)

// varKey identifies one contract type variable instantiated for one
// block, on one axis.
type varKey struct {
	block int
	v     types.Var
	axis  types.Axis
}

// term is one axis of one port: either a concrete value or a variable.
type term struct {
	concrete bool
	val      uint32
	key      varKey
}

// edgeInfo caches resolved port specs for one edge.
type edgeInfo struct {
	bad      bool
	srcBlock int
	srcSpec  *block.PortSpec
	dstBlock int
	dstSpec  *block.PortSpec
}

// solver propagates type constraints over the wiring graph to a fixed
// point. Bindings live in a flat map keyed by (block, var, axis); an
// edge whose two endpoints resolve to conflicting concrete values is
// marked mismatched and handed to the adapter pass instead of failing
// the solve.
type solver struct {
	reg        *block.Registry
	np         *NormalizedPatch
	contracts  []*block.Contract
	edges      []edgeInfo
	bind       map[varKey]uint32
	mismatched map[int]bool
}

var solveAxes = [...]types.Axis{
	types.AxisPayload, types.AxisUnit, types.AxisCardinality, types.AxisInstance,
}

func newSolver(reg *block.Registry, np *NormalizedPatch) (*solver, diag.List) {
	s := &solver{
		reg:        reg,
		np:         np,
		contracts:  make([]*block.Contract, len(np.Blocks)),
		edges:      make([]edgeInfo, len(np.Edges)),
		bind:       make(map[varKey]uint32),
		mismatched: make(map[int]bool),
	}

	var errs diag.List
	for i, b := range np.Blocks {
		c, ok := reg.Lookup(b.Type)
		if !ok {
			errs = append(errs, &diag.Diagnostic{
				Code:    diag.UnknownBlockType,
				Block:   b.ID,
				Message: "no contract registered for block type " + b.Type,
			})
			continue
		}
		s.contracts[i] = c
	}

	seen := make(map[PortKey]bool)
	for i, e := range np.Edges {
		info := &s.edges[i]
		ref := &diag.EdgeRef{
			FromBlock: e.From.Block, FromPort: e.From.Port,
			ToBlock: e.To.Block, ToPort: e.To.Port,
		}
		src, okS := np.Index[e.From.Block]
		dst, okD := np.Index[e.To.Block]
		if !okS || !okD {
			errs = append(errs, &diag.Diagnostic{
				Code:    diag.UnknownBlockType,
				Edge:    ref,
				Message: "edge references a block that does not exist",
			})
			info.bad = true
			continue
		}
		if s.contracts[src] == nil || s.contracts[dst] == nil {
			info.bad = true // unknown type already reported
			continue
		}
		srcSpec, okS := s.contracts[src].Output(e.From.Port)
		dstSpec, okD := s.contracts[dst].Input(e.To.Port)
		if !okS || !okD {
			errs = append(errs, &diag.Diagnostic{
				Code:    diag.UnknownBlockType,
				Edge:    ref,
				Message: "edge references a port the contract does not declare",
			})
			info.bad = true
			continue
		}
		in := PortKey{Block: dst, Port: e.To.Port, Dir: DirIn}
		if seen[in] {
			errs = append(errs, &diag.Diagnostic{
				Code:    diag.DuplicateBlockID,
				Block:   e.To.Block,
				Port:    e.To.Port,
				Message: "input port has more than one incoming edge",
			})
			info.bad = true
			continue
		}
		seen[in] = true
		info.srcBlock, info.srcSpec = src, srcSpec
		info.dstBlock, info.dstSpec = dst, dstSpec
	}

	// Placement blocks range over a fresh domain: pin their declared
	// instance variable to a deterministic identity derived from the
	// block index.
	for i, c := range s.contracts {
		if c == nil || !c.CreatesInstance {
			continue
		}
		for _, out := range c.Outputs {
			if out.Type.InstanceVar != 0 {
				s.bind[varKey{block: i, v: out.Type.InstanceVar, axis: types.AxisInstance}] = uint32(i + 1)
			}
		}
	}

	return s, errs
}

// axisTerm projects one axis of a pattern for a given block instance.
func axisTerm(blk int, p types.Pattern, axis types.Axis) term {
	switch axis {
	case types.AxisPayload:
		if p.PayloadVar != 0 {
			return term{key: varKey{blk, p.PayloadVar, axis}}
		}
		return term{concrete: true, val: uint32(p.Payload)}
	case types.AxisUnit:
		if p.UnitVar != 0 {
			return term{key: varKey{blk, p.UnitVar, axis}}
		}
		return term{concrete: true, val: uint32(p.Unit)}
	case types.AxisCardinality:
		if p.CardVar != 0 {
			return term{key: varKey{blk, p.CardVar, axis}}
		}
		return term{concrete: true, val: uint32(p.Card)}
	default: // instance
		if p.InstanceVar != 0 {
			return term{key: varKey{blk, p.InstanceVar, axis}}
		}
		return term{concrete: true, val: uint32(p.Instance)}
	}
}

func (s *solver) lookup(t term) (uint32, bool) {
	if t.concrete {
		return t.val, true
	}
	v, ok := s.bind[t.key]
	return v, ok
}

// run iterates edge constraints to a fixed point. Iteration order is
// the edge order, so results are deterministic for a given patch.
//
// An axis whose two endpoints resolve to different concrete values
// marks the edge mismatched for the adapter pass; the edge's other
// axes keep propagating, since an adapter chain preserves every axis
// it does not convert and both endpoints still need fully resolved
// types for the chain to be typed.
func (s *solver) run() {
	for changed := true; changed; {
		changed = false
		for ei := range s.edges {
			info := &s.edges[ei]
			if info.bad {
				continue
			}
			for _, ax := range solveAxes {
				st := axisTerm(info.srcBlock, info.srcSpec.Type, ax)
				dt := axisTerm(info.dstBlock, info.dstSpec.Type, ax)
				sv, sok := s.lookup(st)
				dv, dok := s.lookup(dt)
				if ax == types.AxisInstance {
					// NoInstance carries no information: it neither
					// propagates nor conflicts with a real domain.
					sok = sok && types.Instance(sv) != types.NoInstance
					dok = dok && types.Instance(dv) != types.NoInstance
				}
				switch {
				case sok && dok && sv != dv:
					if !s.mismatched[ei] {
						s.mismatched[ei] = true
						changed = true
					}
				case sok && !dok && !dt.concrete:
					s.bind[dt.key] = sv
					changed = true
				case dok && !sok && !st.concrete:
					s.bind[st.key] = dv
					changed = true
				}
			}
		}
	}
}

// resolveType reads back a pattern's axes through the bindings. The
// instance axis only matters at cardinality many: a field must carry a
// real domain identity, while a signal's instance variable may stay
// unbound without making the port unresolved.
func (s *solver) resolveType(blk int, p types.Pattern) (types.CanonicalType, bool) {
	var t types.CanonicalType
	cv, ok := s.lookup(axisTerm(blk, p, types.AxisCardinality))
	if !ok {
		return types.CanonicalType{}, false
	}
	t.Card = types.Cardinality(cv)
	pv, ok := s.lookup(axisTerm(blk, p, types.AxisPayload))
	if !ok {
		return types.CanonicalType{}, false
	}
	t.Payload = types.Payload(pv)
	uv, ok := s.lookup(axisTerm(blk, p, types.AxisUnit))
	if !ok {
		return types.CanonicalType{}, false
	}
	t.Unit = types.Unit(uv)
	if t.Card == types.Many {
		iv, ok := s.lookup(axisTerm(blk, p, types.AxisInstance))
		if !ok || types.Instance(iv) == types.NoInstance {
			return types.CanonicalType{}, false
		}
		t.Instance = types.Instance(iv)
	}
	t.Temporal = p.Temporal
	t.Range = p.Range
	return t, true
}

// resolvePorts reads every port's type back out of the solved
// bindings. Unresolvable ports are reported individually so one
// compile surfaces as many errors as possible.
func (s *solver) resolvePorts() (*TypedPatch, diag.List) {
	tp := &TypedPatch{
		NormalizedPatch: *s.np,
		Ports:           make(map[PortKey]types.CanonicalType),
	}

	connected := make(map[PortKey]bool)
	for ei, e := range s.np.Edges {
		if s.edges[ei].bad {
			continue
		}
		connected[PortKey{Block: s.edges[ei].dstBlock, Port: e.To.Port, Dir: DirIn}] = true
	}

	// An input with a declared default adopts the default value's
	// natural axes for whatever the graph left unbound, whether the
	// port is unwired or wired to a source the solve could not pin
	// down. The extra run propagates the new bindings outward.
	fallback := map[types.Axis]uint32{
		types.AxisPayload:     uint32(types.PayloadFloat),
		types.AxisUnit:        uint32(types.UnitScalar),
		types.AxisCardinality: uint32(types.One),
		types.AxisInstance:    uint32(types.NoInstance),
	}
	defaulted := false
	for i, c := range s.contracts {
		if c == nil {
			continue
		}
		for _, in := range c.Inputs {
			if in.Default == nil {
				continue
			}
			for _, ax := range solveAxes {
				t := axisTerm(i, in.Type, ax)
				if !t.concrete {
					if _, ok := s.bind[t.key]; !ok {
						s.bind[t.key] = fallback[ax]
						defaulted = true
					}
				}
			}
		}
	}
	if defaulted {
		s.run()
	}

	var errs diag.List
	for i, c := range s.contracts {
		if c == nil {
			continue
		}
		b := &s.np.Blocks[i]
		for _, in := range c.Inputs {
			key := PortKey{Block: i, Port: in.Name, Dir: DirIn}
			t, ok := s.resolveType(i, in.Type)
			if ok {
				tp.Ports[key] = t
			}
			switch {
			case !ok && (connected[key] || !in.Optional):
				errs = append(errs, &diag.Diagnostic{
					Code:    diag.UnresolvedType,
					Block:   b.ID,
					Port:    in.Name,
					Message: "port type variable never got bound",
				})
			case ok && !connected[key] && in.Default == nil && !in.Optional:
				errs = append(errs, &diag.Diagnostic{
					Code:    diag.UnresolvedType,
					Block:   b.ID,
					Port:    in.Name,
					Message: "input is not connected and declares no default",
				})
			}
		}
		for _, out := range c.Outputs {
			key := PortKey{Block: i, Port: out.Name, Dir: DirOut}
			t, ok := s.resolveType(i, out.Type)
			if !ok {
				errs = append(errs, &diag.Diagnostic{
					Code:    diag.UnresolvedType,
					Block:   b.ID,
					Port:    out.Name,
					Message: "port type variable never got bound",
				})
				continue
			}
			tp.Ports[key] = t
		}
	}
	return tp, errs
}
