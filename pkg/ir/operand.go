package ir

// SrcKind tags the alternative a Src actually holds.
type SrcKind uint8

const (
	SrcUndef SrcKind = iota
	SrcZero
	SrcTrue
	SrcFalse
	SrcImm32
	SrcCBuf
	SrcSSA
	SrcReg
)

// CBufKind distinguishes a plain bound constant buffer from one addressed
// indirectly through a uniform GPR.
type CBufKind uint8

const (
	CBufBinding CBufKind = iota
	CBufBindlessUGPR
)

// CBufRef names a constant-buffer read through a binding or a bindless
// uniform-GPR index.
type CBufRef struct {
	Kind    CBufKind
	Binding uint32  // valid when Kind == CBufBinding
	UGPR    RegRef  // valid when Kind == CBufBindlessUGPR
	Offset  uint32
}

// Src is one instruction source operand. Exactly one of its fields is
// meaningful, selected by Kind; this mirrors the tagged union in the
// original IR without requiring a Go interface per alternative.
type Src struct {
	Kind SrcKind
	Imm  uint32
	CBuf CBufRef
	SSA  SSAValue
	Reg  RegRef
}

// NewImmSrc builds an immediate 32-bit source.
func NewImmSrc(v uint32) Src { return Src{Kind: SrcImm32, Imm: v} }

// NewZeroSrc builds the canonical zero source.
func NewZeroSrc() Src { return Src{Kind: SrcZero} }

// NewSSASrc builds a source reading an SSA value.
func NewSSASrc(v SSAValue) Src { return Src{Kind: SrcSSA, SSA: v} }

// NewRegSrc builds a source reading a physical register.
func NewRegSrc(r RegRef) Src { return Src{Kind: SrcReg, Reg: r} }

// AsSSA returns the SSA value and true if this source reads one.
func (s Src) AsSSA() (SSAValue, bool) {
	if s.Kind == SrcSSA {
		return s.SSA, true
	}
	return SSAValue{}, false
}

// IsConst reports whether this source is a trivial, freely re-materialisable
// constant: an immediate, a boolean literal, zero, or a bound constant-buffer
// read. Matches const_tracker.rs's is_const check.
func (s Src) IsConst() bool {
	switch s.Kind {
	case SrcZero, SrcTrue, SrcFalse, SrcImm32:
		return true
	case SrcCBuf:
		return s.CBuf.Kind == CBufBinding
	default:
		return false
	}
}

// DstKind tags the alternative a Dst actually holds.
type DstKind uint8

const (
	DstNone DstKind = iota
	DstSSA
	DstReg
)

// Dst is one instruction destination operand.
type Dst struct {
	Kind DstKind
	SSA  SSAValue
	Reg  RegRef
}

// NewSSADst builds a destination writing a fresh SSA value.
func NewSSADst(v SSAValue) Dst { return Dst{Kind: DstSSA, SSA: v} }

// NewRegDst builds a destination writing a physical register.
func NewRegDst(r RegRef) Dst { return Dst{Kind: DstReg, Reg: r} }

// AsSSA returns the SSA value and true if this destination writes one.
func (d Dst) AsSSA() (SSAValue, bool) {
	if d.Kind == DstSSA {
		return d.SSA, true
	}
	return SSAValue{}, false
}

// File returns the register file this operand belongs to, panicking for a
// DstNone (callers must check Kind first in that case).
func (d Dst) File() RegFile {
	switch d.Kind {
	case DstSSA:
		return d.SSA.File()
	case DstReg:
		return d.Reg.File
	default:
		panic("ir: Dst has no file")
	}
}

// PredKind tags the alternative a Pred reference actually holds.
type PredKind uint8

const (
	PredNone PredKind = iota
	PredSSA
	PredReg
)

// PredRef is an instruction's optional execution predicate.
type PredRef struct {
	Kind   PredKind
	SSA    SSAValue
	Reg    RegRef
	Negate bool
}

// IsNone reports whether the instruction is unpredicated.
func (p PredRef) IsNone() bool { return p.Kind == PredNone }
