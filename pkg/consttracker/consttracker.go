// Package consttracker implements C2: a map from SSA value to the trivial,
// freely re-materialisable constant source it was copied from. Anything
// that is an immediate, zero, a boolean literal, or a bound constant-buffer
// read is cheaper to re-emit at every use site than to keep resident in a
// register across the whole shader. Grounded on const_tracker.rs.
package consttracker

import "github.com/nouveau-go/nakcore/pkg/ir"

// Tracker records which SSA values are known-constant copies.
type Tracker struct {
	consts map[ir.SSAValue]ir.Src
}

// New builds an empty Tracker.
func New() *Tracker {
	return &Tracker{consts: make(map[ir.SSAValue]ir.Src)}
}

// AddCopy registers a single-destination OpCopy instruction. If its source
// is a constant (per ir.Src.IsConst), the destination SSA value is recorded
// against that source.
func (t *Tracker) AddCopy(instr *ir.Instruction) {
	if instr.Op != ir.OpCopy {
		panic("consttracker: AddCopy called on non-OpCopy instruction")
	}
	if len(instr.Dsts) != 1 || len(instr.Srcs) != 1 {
		panic("consttracker: OpCopy must have exactly one dst and one src")
	}
	dst, ok := instr.Dsts[0].AsSSA()
	if !ok {
		return
	}
	src := instr.Srcs[0]
	if src.IsConst() {
		t.consts[dst] = src
	}
}

// Contains reports whether ssa is a known constant.
func (t *Tracker) Contains(ssa ir.SSAValue) bool {
	_, ok := t.consts[ssa]
	return ok
}

// Get returns the constant source ssa was copied from, if any.
func (t *Tracker) Get(ssa ir.SSAValue) (ir.Src, bool) {
	src, ok := t.consts[ssa]
	return src, ok
}
