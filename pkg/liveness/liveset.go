package liveness

import (
	"sort"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

// LiveSet is the unordered set of SSA values the spiller holds resident in
// registers at some program point — Braun & Hack's W set. Grounded on
// spill_values.rs's use of liveness::LiveSet, inferred from its call sites
// (liveness.rs itself was not part of the retrieved original source).
type LiveSet struct {
	vals map[ir.SSAValue]struct{}
}

// NewLiveSet builds an empty LiveSet.
func NewLiveSet() *LiveSet { return &LiveSet{vals: make(map[ir.SSAValue]struct{})} }

// LiveSetFromSlice builds a LiveSet containing exactly the given values.
func LiveSetFromSlice(vs []ir.SSAValue) *LiveSet {
	s := NewLiveSet()
	s.Extend(vs)
	return s
}

// Contains reports whether v is resident.
func (s *LiveSet) Contains(v ir.SSAValue) bool {
	_, ok := s.vals[v]
	return ok
}

// Insert marks v resident.
func (s *LiveSet) Insert(v ir.SSAValue) { s.vals[v] = struct{}{} }

// Remove marks v no longer resident.
func (s *LiveSet) Remove(v ir.SSAValue) { delete(s.vals, v) }

// Extend inserts every value in vs.
func (s *LiveSet) Extend(vs []ir.SSAValue) {
	for _, v := range vs {
		s.Insert(v)
	}
}

// Clone returns an independent copy of s.
func (s *LiveSet) Clone() *LiveSet {
	c := NewLiveSet()
	for v := range s.vals {
		c.vals[v] = struct{}{}
	}
	return c
}

// Count returns how many resident values belong to file.
func (s *LiveSet) Count(file ir.RegFile) uint32 {
	var n uint32
	for v := range s.vals {
		if v.File() == file {
			n++
		}
	}
	return n
}

// Iter returns every member, sorted by allocation index for a deterministic
// traversal order.
func (s *LiveSet) Iter() []ir.SSAValue {
	out := make([]ir.SSAValue, 0, len(s.vals))
	for v := range s.vals {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx() < out[j].Idx() })
	return out
}

// InsertInstrTopDown advances the working set across instr at position ip:
// every source no longer live afterward drops out, and every destination
// becomes resident. Grounded on the combined src-drop/dst-insert bookkeeping
// spill_values.rs performs by hand for OpParCopy and otherwise reaches for
// through this one call for every other instruction kind.
func (s *LiveSet) InsertInstrTopDown(ip int, instr *ir.Instruction, bl *NextUseBlockLiveness) {
	instr.ForEachSSAUse(func(ssa ir.SSAValue) {
		if !bl.files.Contains(ssa.File()) {
			return
		}
		if !bl.IsLiveAfterIP(ssa, ip) {
			s.Remove(ssa)
		}
	})
	instr.ForEachSSADef(func(ssa ir.SSAValue) {
		if !bl.files.Contains(ssa.File()) {
			return
		}
		s.Insert(ssa)
	})
}
