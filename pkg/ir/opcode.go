package ir

// Op is a compact tag identifying an instruction's operation, the sum type
// spec.md §9 calls for: a closed set of alternatives. postsched's
// side-effect classifier and variable-latency estimate panic naming an op
// they do not list; smcap's latency and uniform tables, dce's purity check
// and the Op predicates (IsBranch, NeedsYield, ...) give an unlisted op a
// default answer instead.
type Op uint16

const (
	// Float ALU
	OpFAdd Op = iota
	OpFMul
	OpFFma
	OpFMnMx
	OpFSet
	OpFSetP
	OpF2F
	OpF2I
	OpI2F
	OpI2I
	OpFRnd
	OpF2FP

	// Half-precision float ALU
	OpHAdd2
	OpHMul2
	OpHFma2
	OpHSet2
	OpHSetP2
	OpHMnMx2

	// Double-precision float ALU
	OpDAdd
	OpDMul
	OpDFma
	OpDMnMx
	OpDSetP

	// Integer ALU
	OpIAdd3
	OpIAdd3X
	OpIMad
	OpIMad64
	OpIMul
	OpIMnMx
	OpISetP
	OpLop2
	OpLop3
	OpShf
	OpShl
	OpShr
	OpBfe
	OpFlo
	OpPopC
	OpBRev
	OpBMsk
	OpIAbs
	OpIDp4
	OpLea
	OpLeaX

	// Predicate ALU
	OpPLop3
	OpPSetP

	// Multi-function unit
	OpMuFu
	OpRro

	// Move / select / permute
	OpMov
	OpSel
	OpPrmt
	OpShfl
	OpVote
	OpCopy
	OpParCopy
	OpSwap
	OpUndef

	// Uniform datapath
	OpR2UR

	// Memory
	OpLd
	OpSt
	OpAtom
	OpLdc
	OpCCtl
	OpMemBar
	OpALd
	OpASt
	OpAL2P
	OpLdTram
	OpIpa

	// Texture / surface (memory side effect, no tiling semantics modeled)
	OpTex
	OpTld
	OpTld4
	OpTmml
	OpTxd
	OpTxq
	OpSuLd
	OpSuSt
	OpSuAtom

	// Control flow
	OpBra
	OpExit
	OpBar
	OpBSSy
	OpBSync
	OpBClear
	OpSSy
	OpSync
	OpBrk
	OpPBk
	OpCont
	OpPCnt
	OpKill
	OpWarpSync

	// Miscellaneous fixed ops
	OpCS2R
	OpS2R
	OpIsberd
	OpBMov
	OpOut
	OpOutFinal
	OpPixLd

	// Virtual / pseudo ops
	OpNop
	OpSrcBar
	OpPin
	OpUnpin
	OpPhiDsts
	OpPhiSrcs
	OpAnnotate
	OpRegOut

	opCount // sentinel, not a real opcode
)

// OpCount is the number of distinct opcodes in the closed set.
const OpCount = int(opCount)

// IsBranch reports whether op terminates a block by transferring control
// away from the next instruction, requiring calcdeps to emit a full
// barrier (spec.md §4.4.1).
func (op Op) IsBranch() bool {
	switch op {
	case OpBra, OpExit, OpSSy, OpSync, OpBrk, OpPBk, OpCont, OpPCnt, OpBSSy, OpBSync:
		return true
	default:
		return false
	}
}

// NeedsYield reports whether op is a barrier/synchronisation instruction
// that must set the yield flag, per spec.md §4.4.5.
func (op Op) NeedsYield() bool {
	switch op {
	case OpBar, OpBClear, OpBSSy, OpBSync:
		return true
	default:
		return false
	}
}

// HasFixedDst reports whether op has at least one destination operand that
// participates in register-use tracking; virtual ops like PhiSrcs do not.
func (op Op) HasFixedDst() bool {
	switch op {
	case OpPhiSrcs, OpNop, OpSrcBar, OpAnnotate, OpExit, OpBra, OpSSy, OpSync,
		OpBrk, OpPBk, OpCont, OpPCnt, OpBSSy, OpBSync, OpBClear:
		return false
	default:
		return true
	}
}

// String returns a lowercase mnemonic for diagnostics and textual IR dumps.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown_op"
}

var opNames = map[Op]string{
	OpFAdd: "fadd", OpFMul: "fmul", OpFFma: "ffma", OpFMnMx: "fmnmx",
	OpFSet: "fset", OpFSetP: "fsetp", OpF2F: "f2f", OpF2I: "f2i",
	OpI2F: "i2f", OpI2I: "i2i", OpFRnd: "frnd", OpF2FP: "f2fp",
	OpHAdd2: "hadd2", OpHMul2: "hmul2", OpHFma2: "hfma2", OpHSet2: "hset2",
	OpHSetP2: "hsetp2", OpHMnMx2: "hmnmx2",
	OpDAdd: "dadd", OpDMul: "dmul", OpDFma: "dfma", OpDMnMx: "dmnmx", OpDSetP: "dsetp",
	OpIAdd3: "iadd3", OpIAdd3X: "iadd3x", OpIMad: "imad", OpIMad64: "imad64",
	OpIMul: "imul", OpIMnMx: "imnmx", OpISetP: "isetp", OpLop2: "lop2",
	OpLop3: "lop3", OpShf: "shf", OpShl: "shl", OpShr: "shr", OpBfe: "bfe",
	OpFlo: "flo", OpPopC: "popc", OpBRev: "brev", OpBMsk: "bmsk",
	OpIAbs: "iabs", OpIDp4: "idp4", OpLea: "lea", OpLeaX: "leax",
	OpPLop3: "plop3", OpPSetP: "psetp",
	OpMuFu: "mufu", OpRro: "rro",
	OpMov: "mov", OpSel: "sel", OpPrmt: "prmt", OpShfl: "shfl",
	OpVote: "vote", OpCopy: "copy", OpParCopy: "parcopy", OpSwap: "swap",
	OpUndef: "undef", OpR2UR: "r2ur",
	OpLd: "ld", OpSt: "st", OpAtom: "atom", OpLdc: "ldc", OpCCtl: "cctl",
	OpMemBar: "membar", OpALd: "ald", OpASt: "ast", OpAL2P: "al2p",
	OpLdTram: "ldtram", OpIpa: "ipa",
	OpTex: "tex", OpTld: "tld", OpTld4: "tld4", OpTmml: "tmml", OpTxd: "txd",
	OpTxq: "txq", OpSuLd: "suld", OpSuSt: "sust", OpSuAtom: "suatom",
	OpBra: "bra", OpExit: "exit", OpBar: "bar", OpBSSy: "bssy", OpBSync: "bsync",
	OpBClear: "bclear", OpSSy: "ssy", OpSync: "sync", OpBrk: "brk", OpPBk: "pbk",
	OpCont: "cont", OpPCnt: "pcnt", OpKill: "kill", OpWarpSync: "warpsync",
	OpCS2R: "cs2r", OpS2R: "s2r", OpIsberd: "isberd", OpBMov: "bmov",
	OpOut: "out", OpOutFinal: "outfinal", OpPixLd: "pixld",
	OpNop: "nop", OpSrcBar: "srcbar", OpPin: "pin", OpUnpin: "unpin",
	OpPhiDsts: "phi_dsts", OpPhiSrcs: "phi_srcs", OpAnnotate: "annotate",
	OpRegOut: "regout",
}
