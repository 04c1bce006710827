// Package block defines the block contract surface the compiler
// consumes: per block type, a typed port schema and a pure lowering
// function from typed inputs to IR nodes. Contracts live in an
// explicit Registry constructed once at startup and passed into the
// compiler; there is no ambient global registration.
package block

import (
	"fmt"

	"github.com/glowkit/patchc/ir"
	"github.com/glowkit/patchc/patch"
	"github.com/glowkit/patchc/types"
)

// PortSpec declares one named port of a contract.
type PortSpec struct {
	Name string
	Type types.Pattern
	// Default, when set on an input port, is materialized as a
	// constant-producing source block if the port is left unwired.
	Default *float64
	// Optional inputs may stay unwired without a default.
	Optional bool
}

// DefaultOf is a convenience for building PortSpec defaults.
func DefaultOf(v float64) *float64 { return &v }

// LowerCall carries everything one lowering invocation needs: the
// block's params, resolved input node handles and types, and the
// resolved output types.
type LowerCall struct {
	BlockID string
	Params  patch.Params
	In      map[string]ir.Handle
	InType  map[string]types.CanonicalType
	OutType map[string]types.CanonicalType
}

// LowerFn lowers one typed block instance into IR nodes. It returns
// output node handles keyed by port name. Purely functional over the
// builder; a failed invariant is reported as an error, not a panic.
type LowerFn func(b *ir.Builder, call LowerCall) (map[string]ir.Handle, error)

// Contract is the compile-time surface of one block type. The core
// never inspects a block's internal math, only its ports and Lower.
type Contract struct {
	Type    string
	Inputs  []PortSpec
	Outputs []PortSpec
	// CreatesInstance marks placement-category blocks whose field
	// outputs range over a fresh domain identity.
	CreatesInstance bool
	// Render marks terminal sink blocks with no outputs.
	Render bool
	Lower  LowerFn
}

// Input finds an input port by name.
func (c *Contract) Input(name string) (*PortSpec, bool) {
	for i := range c.Inputs {
		if c.Inputs[i].Name == name {
			return &c.Inputs[i], true
		}
	}
	return nil, false
}

// Output finds an output port by name.
func (c *Contract) Output(name string) (*PortSpec, bool) {
	for i := range c.Outputs {
		if c.Outputs[i].Name == name {
			return &c.Outputs[i], true
		}
	}
	return nil, false
}

// Registry is an immutable-after-setup lookup table of block
// contracts plus the adapter catalog used for conversion insertion.
type Registry struct {
	contracts map[string]*Contract
	adapters  []AdapterSpec

	constType     string
	broadcastType string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{contracts: make(map[string]*Contract)}
}

// Register adds a contract. Re-registering a type is an error.
func (r *Registry) Register(c *Contract) error {
	if c.Type == "" {
		return fmt.Errorf("contract has empty type")
	}
	if c.Lower == nil {
		return fmt.Errorf("contract %q has no lowering function", c.Type)
	}
	if _, exists := r.contracts[c.Type]; exists {
		return fmt.Errorf("contract %q already registered", c.Type)
	}
	r.contracts[c.Type] = c
	return nil
}

// Lookup finds a contract by block type.
func (r *Registry) Lookup(typ string) (*Contract, bool) {
	c, ok := r.contracts[typ]
	return c, ok
}

// SetConstType names the contract the normalizer materializes for
// default-source blocks. The contract must take a "value" param and
// expose a single "out" port adoptable to the target port's type.
func (r *Registry) SetConstType(typ string) { r.constType = typ }

// ConstType returns the default-source contract type.
func (r *Registry) ConstType() string { return r.constType }

// SetBroadcastType names the contract the normalizer materializes for
// the signal→field fast path.
func (r *Registry) SetBroadcastType(typ string) { r.broadcastType = typ }

// BroadcastType returns the broadcast adapter contract type.
func (r *Registry) BroadcastType() string { return r.broadcastType }
