// Package postsched implements C5: the post-register-allocation list
// scheduler that reorders each block's instructions to minimise stalls,
// using the latency-weighted-depth heuristic (Cooper & Torczon,
// "Engineering a Compiler", 3rd ed., ch. 12.3). Grounded on
// opt_instr_sched_common.rs and opt_instr_sched_postpass.rs.
package postsched

import "github.com/nouveau-go/nakcore/pkg/ir"

// SideEffect classifies how freely an instruction may be reordered past
// others with effects outside the register file.
type SideEffect uint8

const (
	// SideEffectNone is a pure ALU-like op with no effect beyond its
	// register operands.
	SideEffectNone SideEffect = iota
	// SideEffectMemory reads or writes memory and must stay ordered with
	// respect to every other memory op.
	SideEffectMemory
	// SideEffectBarrier is a full code-motion barrier: nothing may be
	// reordered across it.
	SideEffectBarrier
)

// sideEffectType classifies op, mirroring side_effect_type's exhaustive
// match over the ISA.
func sideEffectType(op ir.Op) SideEffect {
	switch op {
	// Float ALU, half/double-precision float ALU, integer ALU, predicate
	// ALU, multi-function unit, conversions, move/select/permute, uniform
	// datapath, Ldc/Ipa reads, PixLd/Vote, and the pure virtual ops: none
	// of these touch anything outside their own register operands.
	case ir.OpFAdd, ir.OpFMul, ir.OpFFma, ir.OpFMnMx, ir.OpFSet, ir.OpFSetP,
		ir.OpF2F, ir.OpF2I, ir.OpI2F, ir.OpI2I, ir.OpFRnd, ir.OpF2FP,
		ir.OpHAdd2, ir.OpHMul2, ir.OpHFma2, ir.OpHSet2, ir.OpHSetP2, ir.OpHMnMx2,
		ir.OpDAdd, ir.OpDMul, ir.OpDFma, ir.OpDMnMx, ir.OpDSetP,
		ir.OpIAdd3, ir.OpIAdd3X, ir.OpIMad, ir.OpIMad64, ir.OpIMul, ir.OpIMnMx,
		ir.OpISetP, ir.OpLop2, ir.OpLop3, ir.OpShf, ir.OpShl, ir.OpShr, ir.OpBfe,
		ir.OpFlo, ir.OpPopC, ir.OpBRev, ir.OpBMsk, ir.OpIAbs, ir.OpIDp4,
		ir.OpLea, ir.OpLeaX, ir.OpPLop3, ir.OpPSetP, ir.OpMuFu, ir.OpRro,
		ir.OpMov, ir.OpSel, ir.OpPrmt, ir.OpShfl, ir.OpVote, ir.OpCopy,
		ir.OpParCopy, ir.OpSwap, ir.OpUndef, ir.OpR2UR, ir.OpLdc, ir.OpIpa,
		ir.OpPixLd, ir.OpNop, ir.OpAnnotate:
		return SideEffectNone

	// Memory, texture, and surface ops serialize against each other.
	case ir.OpLd, ir.OpSt, ir.OpAtom, ir.OpAL2P, ir.OpALd, ir.OpASt,
		ir.OpCCtl, ir.OpLdTram, ir.OpMemBar,
		ir.OpTex, ir.OpTld, ir.OpTld4, ir.OpTmml, ir.OpTxd, ir.OpTxq,
		ir.OpSuLd, ir.OpSuSt, ir.OpSuAtom,
		ir.OpBMov: // the barrier register isn't modelled; serialize like memory
		return SideEffectMemory

	// Control flow, barriers, and virtual retirement ops are full code
	// motion barriers.
	case ir.OpBClear, ir.OpBSSy, ir.OpBSync, ir.OpSSy, ir.OpSync,
		ir.OpBrk, ir.OpPBk, ir.OpCont, ir.OpPCnt, ir.OpBra, ir.OpExit,
		ir.OpWarpSync, ir.OpOut, ir.OpOutFinal,
		ir.OpBar, ir.OpCS2R, ir.OpIsberd, ir.OpKill, ir.OpS2R,
		ir.OpSrcBar, ir.OpPin, ir.OpUnpin, ir.OpPhiSrcs, ir.OpPhiDsts, ir.OpRegOut:
		return SideEffectBarrier

	default:
		panic("postsched: unclassified op: " + op.String())
	}
}
