// Package spill implements C7: the value spiller. When live register
// pressure in one file exceeds the shader model's hardware slot count, the
// spiller evicts the values least likely to be needed soon into another
// (cheaper) file or, failing that, local memory, and reloads them at their
// next use. The heuristic is Braun & Hack's "Register Spilling and
// Live-Range Splitting for SSA-Form Programs": track a working set (W) of
// resident values per program point, driven by next-use distance from
// pkg/liveness, and fill/spill only as pressure actually demands it. The
// pass runs before SSA repair (pkg/ssarepair), which restores SSA form
// afterward since spilling can leave a value with more than one reaching
// definition across a merge point. Grounded on spill_values.rs.
package spill

import "github.com/nouveau-go/nakcore/pkg/ir"

// Spill converts a value of one register file into, and back out of, a
// holding slot — the operation every eviction and reload performs. One
// implementation exists per register-file family, grounded on
// spill_values.rs's four Spill trait implementations (SpillUniform,
// SpillPred, SpillBar, SpillGPR); this IR's scalar SSAValue (no SSARef
// vector-of-components) lets a single instruction stand in for the
// original's per-component loop.
type Spill interface {
	// SpillFile returns the register file this strategy protects from
	// overflow.
	SpillFile() ir.RegFile
	// SlotFile returns the file a spilled value is held in between its
	// Spill and matching Fill — another register file for a cheap spill,
	// ir.Mem for a spill all the way to local memory.
	SlotFile() ir.RegFile
	// Spill moves src out of SpillFile into holding slot dst (in SlotFile).
	Spill(dst, src ir.SSAValue) *ir.Instruction
	// Fill moves src, previously spilled, back into register dst.
	Fill(dst, src ir.SSAValue) *ir.Instruction
}

// NewSpillFor returns the Spill strategy for the given register file.
func NewSpillFor(file ir.RegFile) Spill {
	switch file {
	case ir.UGPR:
		return SpillUniform{}
	case ir.Pred:
		return SpillPred{IntFile: ir.GPR}
	case ir.UPred:
		return SpillPred{IntFile: ir.UGPR}
	case ir.Bar:
		return SpillBar{}
	default:
		return SpillGPR{File: file}
	}
}

// SpillUniform spills a UGPR by broadcasting it into an ordinary warp
// register (cheap: every lane ends up holding the same value) and fills it
// back with the hardware register-to-uniform move.
type SpillUniform struct{}

func (SpillUniform) SpillFile() ir.RegFile { return ir.UGPR }
func (SpillUniform) SlotFile() ir.RegFile  { return ir.GPR }

func (SpillUniform) Spill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{Op: ir.OpCopy, Srcs: []ir.Src{ir.NewSSASrc(src)}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
}

func (SpillUniform) Fill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{Op: ir.OpR2UR, Srcs: []ir.Src{ir.NewSSASrc(src)}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
}

// SpillPred spills a predicate by materialising it as 0/1 in IntFile (GPR
// for the warp predicate file, UGPR for the uniform one) and fills it back
// with an integer compare-not-equal-zero.
type SpillPred struct{ IntFile ir.RegFile }

func (s SpillPred) SpillFile() ir.RegFile {
	if s.IntFile == ir.UGPR {
		return ir.UPred
	}
	return ir.Pred
}
func (s SpillPred) SlotFile() ir.RegFile { return s.IntFile }

func (s SpillPred) Spill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{
		Op:   ir.OpSel,
		Srcs: []ir.Src{ir.NewSSASrc(src), ir.NewImmSrc(1), ir.NewImmSrc(0)},
		Dsts: []ir.Dst{ir.NewSSADst(dst)},
	}
}

func (s SpillPred) Fill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{
		Op:   ir.OpISetP,
		Srcs: []ir.Src{ir.NewSSASrc(src), ir.NewZeroSrc()},
		Dsts: []ir.Dst{ir.NewSSADst(dst)},
	}
}

// SpillBar spills a barrier's state into a GPR and back via the hardware
// barrier-move instruction, which runs in either direction depending on
// which of its operands names the barrier file.
type SpillBar struct{}

func (SpillBar) SpillFile() ir.RegFile { return ir.Bar }
func (SpillBar) SlotFile() ir.RegFile  { return ir.GPR }

func (SpillBar) Spill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{Op: ir.OpBMov, Srcs: []ir.Src{ir.NewSSASrc(src)}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
}

func (SpillBar) Fill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{Op: ir.OpBMov, Srcs: []ir.Src{ir.NewSSASrc(src)}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
}

// SpillGPR is the fallback for any file with no cheaper home to spill into:
// it spills all the way out to local memory.
type SpillGPR struct{ File ir.RegFile }

func (s SpillGPR) SpillFile() ir.RegFile { return s.File }
func (SpillGPR) SlotFile() ir.RegFile    { return ir.Mem }

func (SpillGPR) Spill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{Op: ir.OpCopy, Srcs: []ir.Src{ir.NewSSASrc(src)}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
}

func (SpillGPR) Fill(dst, src ir.SSAValue) *ir.Instruction {
	return &ir.Instruction{Op: ir.OpCopy, Srcs: []ir.Src{ir.NewSSASrc(src)}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
}
