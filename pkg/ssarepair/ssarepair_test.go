package ssarepair

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

// buildLoopWithRedefinedValue builds a 4-block function not in SSA form:
// block0 defines v, block1 (the loop header) both reads and redefines v,
// block2 is the loop latch carrying v unchanged back to block1, and block3
// is the loop exit. Repair must introduce a single phi at block1 merging
// block0's and block1's definitions of v.
func buildLoopWithRedefinedValue() (fn *ir.Function, d0, u1, d1 *ir.Instruction) {
	fn = ir.NewFunction("main", nil)

	v := fn.Values.Alloc(ir.GPR)

	d0 = &ir.Instruction{
		Op:   ir.OpIAdd3,
		Srcs: []ir.Src{ir.NewImmSrc(0), ir.NewImmSrc(0)},
		Dsts: []ir.Dst{ir.NewSSADst(v)},
	}
	block0 := &ir.BasicBlock{Instrs: []*ir.Instruction{d0}}

	u1 = &ir.Instruction{
		Op:   ir.OpISetP,
		Srcs: []ir.Src{ir.NewSSASrc(v), ir.NewImmSrc(10)},
		Dsts: []ir.Dst{ir.NewSSADst(fn.Values.Alloc(ir.Pred))},
	}
	d1 = &ir.Instruction{
		Op:   ir.OpIAdd3,
		Srcs: []ir.Src{ir.NewSSASrc(v), ir.NewImmSrc(1)},
		Dsts: []ir.Dst{ir.NewSSADst(v)},
	}
	block1 := &ir.BasicBlock{Instrs: []*ir.Instruction{u1, d1}}

	block2 := &ir.BasicBlock{Instrs: []*ir.Instruction{}}

	exit := &ir.Instruction{Op: ir.OpExit}
	block3 := &ir.BasicBlock{Instrs: []*ir.Instruction{exit}}

	cfg := ir.NewCFG(
		[]*ir.BasicBlock{block0, block1, block2, block3},
		[][]int{{1}, {2, 3}, {1}, nil},
	)
	fn.CFG = cfg
	return fn, d0, u1, d1
}

func TestRepairIsNoOpWithoutMultipleDefs(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	v := fn.Values.Alloc(ir.GPR)
	instr := &ir.Instruction{Op: ir.OpIAdd3, Dsts: []ir.Dst{ir.NewSSADst(v)}}
	block := &ir.BasicBlock{Instrs: []*ir.Instruction{instr}}
	fn.CFG = ir.NewCFG([]*ir.BasicBlock{block}, [][]int{nil})

	Repair(fn)

	if block.PhiDsts() != nil {
		t.Fatal("repair should not insert phis when every value has one definition")
	}
}

func TestRepairInsertsSinglePhiAtLoopHeader(t *testing.T) {
	fn, _, _, _ := buildLoopWithRedefinedValue()
	Repair(fn)

	header := fn.CFG.Block(1)
	phiDsts := header.PhiDsts()
	if phiDsts == nil {
		t.Fatal("expected a phi-destinations instruction at the loop header")
	}
	if len(phiDsts.Dsts) != 1 {
		t.Fatalf("got %d phi destinations, want 1", len(phiDsts.Dsts))
	}
}

func TestRepairThreadsEntryValueThroughPredecessorPhiSrc(t *testing.T) {
	fn, d0, _, _ := buildLoopWithRedefinedValue()
	Repair(fn)

	entryPhiSrcs := fn.CFG.Block(0).PhiSrcs()
	if entryPhiSrcs == nil {
		t.Fatal("expected block0 to gain a phi-sources instruction feeding the header's phi")
	}
	d0SSA, ok := d0.Dsts[0].AsSSA()
	if !ok {
		t.Fatal("d0's destination should still be an SSA value after repair")
	}
	srcSSA, ok := entryPhiSrcs.Srcs[0].AsSSA()
	if !ok || srcSSA != d0SSA {
		t.Fatalf("block0's phi src should carry d0's own definition, got %v want %v", srcSSA, d0SSA)
	}
}

func TestRepairThreadsLatchValueUnchangedThroughEmptyBlock(t *testing.T) {
	fn, _, _, d1 := buildLoopWithRedefinedValue()
	Repair(fn)

	latchPhiSrcs := fn.CFG.Block(2).PhiSrcs()
	if latchPhiSrcs == nil {
		t.Fatal("expected block2 to gain a phi-sources instruction feeding the header's phi")
	}
	d1SSA, ok := d1.Dsts[0].AsSSA()
	if !ok {
		t.Fatal("d1's destination should still be an SSA value after repair")
	}
	srcSSA, ok := latchPhiSrcs.Srcs[0].AsSSA()
	if !ok || srcSSA != d1SSA {
		t.Fatalf("block2's phi src should carry block1's redefinition unchanged, got %v want %v", srcSSA, d1SSA)
	}
}

func TestRepairRewritesHeaderReadToMergedPhiValue(t *testing.T) {
	fn, _, u1, _ := buildLoopWithRedefinedValue()
	Repair(fn)

	header := fn.CFG.Block(1)
	phiDsts := header.PhiDsts()
	mergedSSA, ok := phiDsts.Dsts[0].AsSSA()
	if !ok {
		t.Fatal("the header phi's destination should be an SSA value")
	}
	readSSA, ok := u1.Srcs[0].AsSSA()
	if !ok || readSSA != mergedSSA {
		t.Fatalf("the header's first read of v should now read the merged phi value, got %v want %v", readSSA, mergedSSA)
	}
}
