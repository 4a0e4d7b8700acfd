package spill

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/debugcfg"
	"github.com/nouveau-go/nakcore/pkg/ir"
)

// TestValuesSpillsUnderPressure builds a single block that defines three
// GPR values under a limit of two, then reads all three back at the end —
// forcing at least one spill (when the third definition overflows the
// limit) and at least one fill (when the spilled value is read again).
func TestValuesSpillsUnderPressure(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	a := fn.Values.Alloc(ir.GPR)
	b := fn.Values.Alloc(ir.GPR)
	c := fn.Values.Alloc(ir.GPR)

	defA := &ir.Instruction{Op: ir.OpIAdd3, Srcs: []ir.Src{ir.NewImmSrc(1), ir.NewImmSrc(2)}, Dsts: []ir.Dst{ir.NewSSADst(a)}}
	defB := &ir.Instruction{Op: ir.OpIAdd3, Srcs: []ir.Src{ir.NewImmSrc(3), ir.NewImmSrc(4)}, Dsts: []ir.Dst{ir.NewSSADst(b)}}
	defC := &ir.Instruction{Op: ir.OpIAdd3, Srcs: []ir.Src{ir.NewImmSrc(5), ir.NewImmSrc(6)}, Dsts: []ir.Dst{ir.NewSSADst(c)}}
	exit := &ir.Instruction{Op: ir.OpExit, Srcs: []ir.Src{ir.NewSSASrc(a), ir.NewSSASrc(b), ir.NewSSASrc(c)}}

	block := &ir.BasicBlock{Instrs: []*ir.Instruction{defA, defB, defC, exit}}
	fn.CFG = ir.NewCFG([]*ir.BasicBlock{block}, [][]int{nil})

	info := &ir.ShaderInfo{}
	Values(fn, ir.GPR, 2, info, debugcfg.Flags{})

	if info.NumSpillsToMem == 0 {
		t.Fatalf("expected at least one spill once three live GPRs exceed a limit of 2, got %+v", info)
	}
	if info.NumFillsFromMem == 0 {
		t.Fatalf("expected at least one fill once a spilled value is read again, got %+v", info)
	}
	if len(block.Instrs) <= 4 {
		t.Fatalf("expected spill/fill traffic to grow the instruction count, got %d instrs", len(block.Instrs))
	}

	exitFound := false
	for _, instr := range block.Instrs {
		if instr.Op == ir.OpExit {
			exitFound = true
		}
	}
	if !exitFound {
		t.Fatal("original exit instruction must survive spilling")
	}
}

// TestValuesNeverSpillsKnownConstant checks that a value consttracker
// already knows is a trivial constant never generates real spill traffic,
// even when register pressure would otherwise force it out.
func TestValuesNeverSpillsKnownConstant(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	k := fn.Values.Alloc(ir.GPR)
	other := fn.Values.Alloc(ir.GPR)

	defK := &ir.Instruction{Op: ir.OpCopy, Srcs: []ir.Src{ir.NewImmSrc(42)}, Dsts: []ir.Dst{ir.NewSSADst(k)}}
	defOther := &ir.Instruction{Op: ir.OpIAdd3, Srcs: []ir.Src{ir.NewImmSrc(1), ir.NewImmSrc(2)}, Dsts: []ir.Dst{ir.NewSSADst(other)}}
	exit := &ir.Instruction{Op: ir.OpExit, Srcs: []ir.Src{ir.NewSSASrc(k), ir.NewSSASrc(other)}}

	block := &ir.BasicBlock{Instrs: []*ir.Instruction{defK, defOther, exit}}
	fn.CFG = ir.NewCFG([]*ir.BasicBlock{block}, [][]int{nil})

	info := &ir.ShaderInfo{}
	Values(fn, ir.GPR, 1, info, debugcfg.Flags{})

	if info.NumSpillsToMem != 0 {
		t.Fatalf("a known constant should never generate real spill traffic, got %d spills", info.NumSpillsToMem)
	}
}
