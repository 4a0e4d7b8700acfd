// Package regtracker implements C1, the generic per-register-slot sideband
// map every post-RA pass needs: one T value per GPR/UGPR/Pred/UPred/Carry
// slot, indexable by an ir.RegRef range and walkable over an instruction's
// predicate, sources, and destinations. Grounded on reg_tracker.rs's
// RegTracker<T>, reshaped from Rust's const-generic arrays plus Index/
// IndexMut operator overloads into plain Go slices and accessor methods.
package regtracker

import "github.com/nouveau-go/nakcore/pkg/ir"

// Tracker holds one T per physical slot of the GPR, UGPR, Pred, UPred, and
// Carry files. Bar has a hardware scoreboard rather than a register array
// and Mem is not a real register file, so neither has slots here: Slots
// returns nil for Bar and panics for Mem.
type Tracker[T any] struct {
	reg   []T
	ureg  []T
	pred  []T
	upred []T
	carry []T
}

// New builds a Tracker with every slot initialised by calling init() once.
func New[T any](init func() T) *Tracker[T] {
	return &Tracker[T]{
		reg:   newArrayWith(ir.GPR.NumSlots(), init),
		ureg:  newArrayWith(ir.UGPR.NumSlots(), init),
		pred:  newArrayWith(ir.Pred.NumSlots(), init),
		upred: newArrayWith(ir.UPred.NumSlots(), init),
		carry: newArrayWith(ir.Carry.NumSlots(), init),
	}
}

func newArrayWith[T any](n int, init func() T) []T {
	a := make([]T, n)
	for i := range a {
		a[i] = init()
	}
	return a
}

// Slots returns the backing slice for file, sliced to the given register's
// [Start,End) range. Bar backs no slot array and returns nil; Mem panics.
func (t *Tracker[T]) Slots(reg ir.RegRef) []T {
	switch reg.File {
	case ir.GPR:
		return t.reg[reg.Start:reg.End]
	case ir.UGPR:
		return t.ureg[reg.Start:reg.End]
	case ir.Pred:
		return t.pred[reg.Start:reg.End]
	case ir.UPred:
		return t.upred[reg.Start:reg.End]
	case ir.Carry:
		return t.carry[reg.Start:reg.End]
	case ir.Bar:
		return nil
	default:
		panic("regtracker: not a register file: " + reg.File.String())
	}
}

// ForEachInstrPred calls f for every slot backing the instruction's
// predicate register, if it has one.
func (t *Tracker[T]) ForEachInstrPred(instr *ir.Instruction, f func(*T)) {
	if reg, ok := instr.Pred.AsRegRef(); ok {
		slots := t.Slots(reg)
		for i := range slots {
			f(&slots[i])
		}
	}
}

// ForEachInstrSrc calls f(srcIdx, slot) for every slot backing a register
// or bindless-UGPR source operand. srcIdx is the operand's position in
// instr.Srcs, matching reg_tracker.rs's for_each_instr_src_mut.
func (t *Tracker[T]) ForEachInstrSrc(instr *ir.Instruction, f func(srcIdx int, slot *T)) {
	for i, s := range instr.Srcs {
		if reg, ok := s.AsRegRef(); ok {
			slots := t.Slots(reg)
			for j := range slots {
				f(i, &slots[j])
			}
		}
	}
}

// ForEachInstrDst calls f(dstIdx, slot) for every slot backing a register
// destination operand.
func (t *Tracker[T]) ForEachInstrDst(instr *ir.Instruction, f func(dstIdx int, slot *T)) {
	for i, d := range instr.Dsts {
		if reg, ok := d.AsRegRef(); ok {
			slots := t.Slots(reg)
			for j := range slots {
				f(i, &slots[j])
			}
		}
	}
}
