// Package dce implements the dead-code elimination pass the spiller invokes
// after SSA repair: a spill/fill burst commonly leaves behind copies whose
// result nothing downstream reads (a value that turned out to already be
// resident, or a fill inserted on an edge that SSA repair later proved
// unreachable from some other use). DCE is intentionally conservative: it
// only ever removes a pure instruction whose every destination is unused,
// never touches control flow, barriers, or phis, and never looks across
// function boundaries. Grounded on the same closed-op-set discipline
// postsched's side-effect classifier (pkg/postsched/sideeffect.go) follows,
// independently reimplemented here since DCE's question — "may this
// instruction vanish if nothing reads its result" — is a different
// classification than "may this instruction move past that one".
package dce

import "github.com/nouveau-go/nakcore/pkg/ir"

// isPure reports whether op has no effect beyond the registers it defines,
// so an instance of it is safe to drop outright once nothing reads its
// destinations. Anything touching memory, control flow, or the phi/pin
// bookkeeping instructions is conservatively kept regardless of use.
func isPure(op ir.Op) bool {
	switch op {
	case ir.OpFAdd, ir.OpFMul, ir.OpFFma, ir.OpFMnMx, ir.OpFSet, ir.OpFSetP,
		ir.OpF2F, ir.OpF2I, ir.OpI2F, ir.OpI2I, ir.OpFRnd, ir.OpF2FP,
		ir.OpHAdd2, ir.OpHMul2, ir.OpHFma2, ir.OpHSet2, ir.OpHSetP2, ir.OpHMnMx2,
		ir.OpDAdd, ir.OpDMul, ir.OpDFma, ir.OpDMnMx, ir.OpDSetP,
		ir.OpIAdd3, ir.OpIAdd3X, ir.OpIMad, ir.OpIMad64, ir.OpIMul, ir.OpIMnMx,
		ir.OpISetP, ir.OpLop2, ir.OpLop3, ir.OpShf, ir.OpShl, ir.OpShr, ir.OpBfe,
		ir.OpFlo, ir.OpPopC, ir.OpBRev, ir.OpBMsk, ir.OpIAbs, ir.OpIDp4,
		ir.OpLea, ir.OpLeaX, ir.OpPLop3, ir.OpPSetP, ir.OpMuFu, ir.OpRro,
		ir.OpMov, ir.OpSel, ir.OpPrmt, ir.OpShfl, ir.OpVote, ir.OpCopy,
		ir.OpParCopy, ir.OpSwap, ir.OpUndef, ir.OpR2UR:
		return true
	default:
		return false
	}
}

// neverRemove names instructions DCE leaves alone even with every
// destination dead: phi bookkeeping must stay in lockstep with its
// predecessors' phi-sources, and Pin/Unpin mark a liveness extent a later
// pass depends on existing, not on its destination being read.
func neverRemove(op ir.Op) bool {
	switch op {
	case ir.OpPhiDsts, ir.OpPhiSrcs, ir.OpPin, ir.OpUnpin:
		return true
	default:
		return false
	}
}

// Run removes every pure, dead instruction from fn: one pass computes the
// set of SSA values read anywhere in the function, then a second pass drops
// any eligible instruction whose destinations are all absent from that set.
// It does not iterate: an instruction whose only readers are themselves
// removed in the same sweep stays in place.
func Run(fn *ir.Function) {
	used := make(map[ir.SSAValue]struct{})
	fn.ForEachInstr(func(_, _ int, instr *ir.Instruction) {
		instr.ForEachSSAUse(func(ssa ir.SSAValue) {
			used[ssa] = struct{}{}
		})
	})

	for _, b := range fn.CFG.Blocks {
		out := b.Instrs[:0]
		for _, instr := range b.Instrs {
			if isDead(instr, used) {
				continue
			}
			out = append(out, instr)
		}
		b.Instrs = out
	}
}

func isDead(instr *ir.Instruction, used map[ir.SSAValue]struct{}) bool {
	if neverRemove(instr.Op) || !isPure(instr.Op) {
		return false
	}
	if len(instr.Dsts) == 0 {
		return false
	}
	anyUsed := false
	instr.ForEachSSADef(func(ssa ir.SSAValue) {
		if _, ok := used[ssa]; ok {
			anyUsed = true
		}
	})
	return !anyUsed
}
