// Package smcap implements C3: the per-shader-model capability tables that
// calcdeps and postsched query for register-file sizes, fixed/decoupled
// latencies, and the uniform-datapath legality of each op. Grounded on
// sm70.rs, with representative per-category latency numbers standing in for
// the thousand-plus line per-opcode tables of sm75_instr_latencies.rs and
// sm80_instr_latencies.rs (see DESIGN.md).
package smcap

import "github.com/nouveau-go/nakcore/pkg/ir"

// Model implements ir.ShaderModel for the sm70-and-later instruction-set
// family: Volta (70-72), Turing (75), Ampere (80-86), and Ada (89). A single
// parametrised struct, mirroring sm70.rs's ShaderModel70 whose behaviour
// already branches internally on self.sm rather than existing as one struct
// per generation.
type Model struct {
	sm uint8
}

// New builds the capability table for shader model sm, which must be >= 70.
func New(sm uint8) *Model {
	if sm < 70 {
		panic("smcap: shader models below sm70 are not supported")
	}
	return &Model{sm: sm}
}

func (m *Model) isVolta() bool   { return m.sm >= 70 && m.sm < 75 }
func (m *Model) isTuring() bool  { return m.sm >= 75 && m.sm < 80 }
func (m *Model) isAmpere() bool  { return m.sm >= 80 && m.sm < 89 }
func (m *Model) isAda() bool     { return m.sm == 89 }
func (m *Model) hasUniformALU() bool { return m.sm >= 73 }

// SM returns the numeric shader-model version.
func (m *Model) SM() uint8 { return m.sm }

// HWReservedGPRs returns 2 on every sm70+ model: two GPRs are burned for the
// program counter (volta whitepaper table 2 footnote).
func (m *Model) HWReservedGPRs() uint32 { return 2 }

// NumRegs returns the addressable slot count for file on this model.
func (m *Model) NumRegs(file ir.RegFile) uint32 {
	switch file {
	case ir.GPR:
		return 255 - m.HWReservedGPRs()
	case ir.UGPR:
		if m.hasUniformALU() {
			return 63
		}
		return 0
	case ir.Pred:
		return 7
	case ir.UPred:
		if m.hasUniformALU() {
			return 7
		}
		return 0
	case ir.Carry:
		return 0
	case ir.Bar:
		return 16
	case ir.Mem:
		return 1 << 24
	default:
		panic("smcap: unknown register file")
	}
}

// isSlowFloatOp reports whether op falls in the "slow" double/half-precision
// float ALU class that instrLatency prices higher below sm80; every other op
// is in the ordinary class.
func (m *Model) isSlowFloatOp(op ir.Op) bool {
	switch op {
	case ir.OpDAdd, ir.OpDFma, ir.OpDMnMx, ir.OpDMul, ir.OpDSetP,
		ir.OpHAdd2, ir.OpHFma2, ir.OpHMul2, ir.OpHSet2, ir.OpHSetP2, ir.OpHMnMx2:
		return true
	default:
		return false
	}
}

// instrLatency is the coarse latency bucket raw/waw/worst latency use on
// every model, mirroring ShaderModel70::instr_latency; the slower
// double/half-precision figures apply only below sm80.
func (m *Model) instrLatency(op ir.Op, file ir.RegFile) uint32 {
	var gprLatency, predLatency uint32
	if m.sm < 80 && m.isSlowFloatOp(op) {
		if m.isVolta() {
			gprLatency, predLatency = 13, 15
		} else {
			gprLatency, predLatency = 13, 14
		}
	} else {
		gprLatency, predLatency = 6, 13
	}

	switch file {
	case ir.GPR:
		return gprLatency
	case ir.UGPR:
		return 12
	case ir.Pred:
		return predLatency
	case ir.UPred:
		return 11
	case ir.Bar:
		return 0
	case ir.Carry:
		return 6
	default:
		panic("smcap: not a register file: " + file.String())
	}
}

// dstFileOf returns fallback unchanged: raw/waw/worst latency are answered
// for the file their caller passes (GPR), not per destination.
func dstFileOf(fallback ir.RegFile) ir.RegFile { return fallback }

// ExecLatency returns the fixed number of cycles op occupies the issue
// slot, for every op: Bar/MemBar and CCtl cost more, everything else 1.
// Mirrors ShaderModel70::exec_latency.
func (m *Model) ExecLatency(op ir.Op) uint32 {
	switch op {
	case ir.OpBar, ir.OpMemBar:
		if m.sm >= 80 {
			return 6
		}
		return 5
	case ir.OpCCtl:
		return 11
	default:
		return 1
	}
}

// decoupledOps are ops whose latency depends on a scoreboard the caller
// must allocate rather than a fixed exec_latency; grounded on the
// coupled/decoupled split in calc_instr_deps.rs (everything that touches
// memory, texture/surface units, or the multi-function unit stalls the
// pipeline unpredictably).
func isDecoupledOp(op ir.Op) bool {
	switch op {
	case ir.OpLd, ir.OpSt, ir.OpAtom, ir.OpLdc, ir.OpALd, ir.OpASt,
		ir.OpAL2P, ir.OpLdTram, ir.OpIpa, ir.OpCCtl, ir.OpMemBar,
		ir.OpTex, ir.OpTld, ir.OpTld4, ir.OpTmml, ir.OpTxd, ir.OpTxq,
		ir.OpSuLd, ir.OpSuSt, ir.OpSuAtom,
		ir.OpMuFu, ir.OpRro, ir.OpShfl, ir.OpS2R, ir.OpIsberd:
		return true
	default:
		return false
	}
}

// OpNeedsScoreboard reports whether op is decoupled. Every model uses the
// same coupled/decoupled split; no per-model table narrows the set on
// Turing or Ampere+.
func (m *Model) OpNeedsScoreboard(op ir.Op) bool {
	if op.IsBranch() || op == ir.OpNop || op == ir.OpSrcBar || op == ir.OpAnnotate {
		return false
	}
	return isDecoupledOp(op)
}

// RawLatency returns the read-after-write wait for a decoupled op's file.
// Turing/Ampere+ would consult a per-opcode table; the fallback used here
// (and by sm70-72) is the coarse instr_latency bucket.
func (m *Model) RawLatency(op ir.Op) uint32 {
	return m.instrLatency(op, dstFileOf(ir.GPR))
}

// WarLatency returns the write-after-read wait: the producer's source is
// assumed read within the first few cycles, so a fixed 4-cycle wait covers
// every model (ShaderModel70::war_latency's pre-Turing fallback, carried
// forward as-is since it is already latency-model-independent).
func (m *Model) WarLatency(op ir.Op) uint32 { return 4 }

// WawLatency returns the write-after-write wait between two writers,
// falling back to the first writer's own latency bucket.
func (m *Model) WawLatency(op ir.Op) uint32 {
	return m.instrLatency(op, dstFileOf(ir.GPR))
}

// PawLatency returns the wait between op writing a value and a later
// instruction reading it as its execution predicate.
func (m *Model) PawLatency(op ir.Op) uint32 {
	if m.isVolta() {
		switch op {
		case ir.OpDSetP, ir.OpHSetP2:
			return 15
		default:
			return 13
		}
	}
	return 13
}

// WorstLatency is the conservative fallback used for a destination whose
// eventual reader calcdeps has not yet seen, falling back to the same
// coarse bucket as RawLatency/WawLatency.
func (m *Model) WorstLatency(op ir.Op) uint32 {
	return m.instrLatency(op, dstFileOf(ir.GPR))
}

// OpCanBeUniform reports whether op may execute on the uniform datapath.
// Grounded verbatim on ShaderModel70::op_can_be_uniform's allow-list.
func (m *Model) OpCanBeUniform(op ir.Op) bool {
	if !m.hasUniformALU() {
		return false
	}
	switch op {
	case ir.OpR2UR, ir.OpS2R, ir.OpBMsk, ir.OpBRev, ir.OpFlo,
		ir.OpIAdd3, ir.OpIAdd3X, ir.OpIMad, ir.OpIMad64, ir.OpISetP,
		ir.OpLea, ir.OpLeaX, ir.OpLop3, ir.OpMov, ir.OpPLop3, ir.OpPopC,
		ir.OpPrmt, ir.OpPSetP, ir.OpSel, ir.OpShf, ir.OpShl, ir.OpShr,
		ir.OpVote, ir.OpCopy, ir.OpPin, ir.OpUnpin:
		return true
	case ir.OpLdc:
		return true
	default:
		return false
	}
}
