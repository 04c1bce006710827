// Package patch defines the mutable author-facing node graph: blocks
// identified by string ids with opaque params, and directed edges wiring
// output ports to input ports. Patches are produced by an external
// editor and consumed by the compiler frontend.
package patch

import (
	"math"

	"github.com/google/uuid"
)

// Role records how an edge came to exist.
type Role uint8

const (
	// RoleUser marks an edge authored directly by the user.
	RoleUser Role = iota
	// RoleDefault marks an edge materialized from a port's declared
	// default value.
	RoleDefault
	// RoleAdapter marks an edge materialized by adapter insertion.
	RoleAdapter
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDefault:
		return "default-source"
	case RoleAdapter:
		return "adapter"
	default:
		return "user"
	}
}

// PortRef names one port on one block.
type PortRef struct {
	Block string `yaml:"block"`
	Port  string `yaml:"port"`
}

// Edge is a directed wire from an output port to an input port.
// Source ports may fan out; a target port accepts at most one edge.
type Edge struct {
	From PortRef `yaml:"from"`
	To   PortRef `yaml:"to"`
	Role Role    `yaml:"-"`
}

// Params is opaque per-block configuration consumed by lowering.
type Params map[string]any

// Float returns the named param as a float64, or def when absent.
func (p Params) Float(name string, def float64) float64 {
	v, ok := p[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

// Int returns the named param as an int, or def when absent or not a
// whole number.
func (p Params) Int(name string, def int) int {
	f := p.Float(name, math.NaN())
	if math.IsNaN(f) || f != math.Trunc(f) {
		return def
	}
	return int(f)
}

// String returns the named param as a string, or def when absent.
func (p Params) String(name, def string) string {
	if s, ok := p[name].(string); ok {
		return s
	}
	return def
}

// Block is one node of the patch.
type Block struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	Params Params `yaml:"params,omitempty"`
}

// Patch is the author-facing graph.
type Patch struct {
	ID     string  `yaml:"id,omitempty"`
	Blocks []Block `yaml:"blocks"`
	Edges  []Edge  `yaml:"edges"`
}

// New returns an empty patch with a fresh document id.
func New() *Patch {
	return &Patch{ID: uuid.NewString()}
}

// AddBlock appends a block and returns the patch for chaining.
func (p *Patch) AddBlock(id, typ string, params Params) *Patch {
	p.Blocks = append(p.Blocks, Block{ID: id, Type: typ, Params: params})
	return p
}

// Connect appends a user-authored edge.
func (p *Patch) Connect(fromBlock, fromPort, toBlock, toPort string) *Patch {
	p.Edges = append(p.Edges, Edge{
		From: PortRef{Block: fromBlock, Port: fromPort},
		To:   PortRef{Block: toBlock, Port: toPort},
	})
	return p
}
