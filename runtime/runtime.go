// Package runtime executes one frame of a compiled program at a time.
// Execution is single-threaded and allocation-free in steady state:
// the persistent state lanes are sized once per program, and the
// scratch lane pool is rewound, not reallocated, every frame. The
// schedule is data-independent; no step is ever skipped based on a
// value, which keeps frame cost predictable and order reproducible.
package runtime

import (
	"github.com/glowkit/patchc/sched"
)

// State is the persistent cross-frame store: one f64 lane per state
// slot plus the frame clock. It is owned exclusively by the single
// execution call in flight.
type State struct {
	state   []float64
	lastMs  float64
	started bool
}

// NewState allocates state lanes for a program, seeded with each
// slot's declared initial value.
func NewState(p *sched.Program) *State {
	s := &State{state: make([]float64, len(p.Schedule.States))}
	for i, d := range p.Schedule.States {
		s.state[i] = d.Init
	}
	return s
}

// Reset re-seeds the state lanes and forgets the frame clock, as if
// no frame had ever run.
func (s *State) Reset(p *sched.Program) {
	for i, d := range p.Schedule.States {
		s.state[i] = d.Init
	}
	s.lastMs = 0
	s.started = false
}

// StateValue reads one state lane; used by tests and tooling.
func (s *State) StateValue(slot int) float64 { return s.state[slot] }

// Pool is the reusable scratch store backing value slots. Ensure
// grows it at most up to the largest program seen; Reset rewinds it
// without freeing.
type Pool struct {
	lanes []float64
}

// NewPool returns an empty pool.
func NewPool() *Pool { return &Pool{} }

// Reset rewinds the pool. Lanes keep their capacity; every slot is
// written before it is read within a frame, so no zeroing is needed.
func (p *Pool) Reset() {}

// Ensure returns a lane array of at least n entries.
func (p *Pool) Ensure(n int) []float64 {
	if cap(p.lanes) < n {
		p.lanes = make([]float64, n)
	}
	p.lanes = p.lanes[:n]
	return p.lanes
}

// Slot reads the lanes of one value slot after a frame has executed;
// this is how the external renderer consumes final field contents.
func Slot(prog *sched.Program, pool *Pool, slot sched.Slot) []float64 {
	info := &prog.Schedule.Slots[slot]
	return pool.lanes[info.Offset : info.Offset+info.Stride*info.Elems]
}

// SinkInput reads the lanes feeding one input of a named render sink.
func SinkInput(prog *sched.Program, pool *Pool, blockID, input string) ([]float64, bool) {
	for _, sink := range prog.IR.Sinks {
		if sink.Block != blockID {
			continue
		}
		h, ok := sink.Inputs[input]
		if !ok {
			return nil, false
		}
		return Slot(prog, pool, prog.NodeSlot[h]), true
	}
	return nil, false
}

// ExecuteFrame runs every step of the schedule once against the given
// timestamp. dt is derived from the previous call's timestamp and is
// zero on the very first call, so time-integrating blocks produce no
// motion on frame one. A correctly compiled program cannot fail here;
// NaN or Inf from user-authored math flows through unsanitized.
func ExecuteFrame(prog *sched.Program, st *State, pool *Pool, timestampMs float64) {
	dt := 0.0
	if st.started {
		dt = (timestampMs - st.lastMs) / 1000
	}
	st.lastMs = timestampMs
	st.started = true

	pool.Reset()
	lanes := pool.Ensure(prog.Schedule.Lanes)

	for i := range prog.Schedule.Steps {
		step := &prog.Schedule.Steps[i]
		switch step.Op {
		case sched.OpEvalSig, sched.OpEvalField:
			evalNode(prog, lanes, step, timestampMs, dt)
		case sched.OpReadState:
			info := &prog.Schedule.Slots[step.Dst]
			lanes[info.Offset] = st.state[step.State]
		case sched.OpWriteState:
			info := &prog.Schedule.Slots[step.Src]
			st.state[step.State] = lanes[info.Offset]
		}
	}
}
