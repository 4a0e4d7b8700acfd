package ir

import (
	"fmt"
	"strings"
)

// DumpFunction renders fn as a flat textual listing: one line per block
// header, one per instruction, naming its op and SSA operands. It exists
// for the `print` debug flag. Instruction lines use the syntax
// ParseFunction reads back, but block headers carry no successors or
// uniform flag and predicates are not printed, so a dump is not a complete
// ParseFunction input.
func DumpFunction(fn *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s\n", fn.Name)
	for bi, b := range fn.CFG.Blocks {
		fmt.Fprintf(&sb, "block%d:\n", bi)
		for _, instr := range b.Instrs {
			sb.WriteString("  ")
			sb.WriteString(dumpInstr(instr))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func dumpInstr(instr *Instruction) string {
	var sb strings.Builder
	dsts := make([]string, len(instr.Dsts))
	for i, d := range instr.Dsts {
		dsts[i] = dumpDst(d)
	}
	if len(dsts) > 0 {
		sb.WriteString(strings.Join(dsts, ", "))
		sb.WriteString(" = ")
	}
	sb.WriteString(instr.Op.String())
	srcs := make([]string, len(instr.Srcs))
	for i, s := range instr.Srcs {
		srcs[i] = dumpSrc(s)
	}
	if len(srcs) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(srcs, ", "))
	}
	return sb.String()
}

func dumpDst(d Dst) string {
	switch d.Kind {
	case DstSSA:
		return dumpSSA(d.SSA)
	case DstReg:
		return fmt.Sprintf("%s[%d]", d.Reg.File, d.Reg.Start)
	default:
		return "_"
	}
}

func dumpSrc(s Src) string {
	switch s.Kind {
	case SrcSSA:
		return dumpSSA(s.SSA)
	case SrcReg:
		return fmt.Sprintf("%s[%d]", s.Reg.File, s.Reg.Start)
	case SrcImm32:
		return fmt.Sprintf("0x%x", s.Imm)
	case SrcZero:
		return "zero"
	case SrcTrue:
		return "true"
	case SrcFalse:
		return "false"
	case SrcCBuf:
		return "cbuf"
	default:
		return "undef"
	}
}

func dumpSSA(v SSAValue) string {
	return fmt.Sprintf("%%%d.%s", v.Idx(), v.File())
}
