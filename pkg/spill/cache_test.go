package spill

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/consttracker"
	"github.com/nouveau-go/nakcore/pkg/ir"
)

func TestCacheSpillThenFillRoundTrips(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	v := fn.Values.Alloc(ir.GPR)

	c := NewCache(SpillGPR{File: ir.GPR}, consttracker.New())
	instr, slot := c.Spill(&fn.Values, v)
	if instr == nil {
		t.Fatal("expected a spill instruction for a never-before-spilled value")
	}
	if slot == v {
		t.Fatal("spill slot must be a fresh value, not the original identity")
	}

	// Spilling the same value again must be a no-op: it is already resident
	// in the slot from the first call.
	instr2, slot2 := c.Spill(&fn.Values, v)
	if instr2 != nil {
		t.Fatal("spilling an already-spilled value should emit no instruction")
	}
	if slot2 != slot {
		t.Fatalf("repeat spill slot mismatch: got %v, want %v", slot2, slot)
	}

	fill := c.Fill(v)
	if fill.Op != ir.OpCopy {
		t.Fatalf("SpillGPR.Fill should emit a plain copy, got %v", fill.Op)
	}
	dst, ok := fill.Dsts[0].AsSSA()
	if !ok || dst != v {
		t.Fatal("fill must redefine the original SSA identity, not a fresh one")
	}

	numSpills, numFills := c.Stats()
	if numSpills != 1 || numFills != 1 {
		t.Fatalf("expected 1 spill and 1 fill, got %d/%d", numSpills, numFills)
	}
	if c.IsToMemory() != true {
		t.Fatal("SpillGPR's slot file is Mem, cache should report IsToMemory")
	}
}

func TestCacheSkipsSpillForKnownConstant(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	v := fn.Values.Alloc(ir.GPR)

	consts := consttracker.New()
	copyInstr := &ir.Instruction{
		Op:   ir.OpCopy,
		Srcs: []ir.Src{ir.NewImmSrc(7)},
		Dsts: []ir.Dst{ir.NewSSADst(v)},
	}
	consts.AddCopy(copyInstr)

	c := NewCache(SpillGPR{File: ir.GPR}, consts)
	instr, slot := c.Spill(&fn.Values, v)
	if instr != nil {
		t.Fatal("a known constant must spill without emitting a real instruction")
	}
	if slot != v {
		t.Fatal("a known constant's 'slot' is itself, no real slot allocated")
	}

	fill := c.Fill(v)
	if fill.Op != ir.OpCopy {
		t.Fatalf("fill of a known constant should re-emit the constant copy, got %v", fill.Op)
	}
	src := fill.Srcs[0]
	if !src.IsConst() {
		t.Fatal("fill of a known constant must re-emit from the constant source, not a spill slot")
	}

	numSpills, _ := c.Stats()
	if numSpills != 0 {
		t.Fatalf("a constant spill must not count toward real spill traffic, got %d", numSpills)
	}
}

func TestCacheRegisterPreSpilled(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	v := fn.Values.Alloc(ir.GPR)
	slot := fn.Values.Alloc(ir.Mem)

	c := NewCache(SpillGPR{File: ir.GPR}, consttracker.New())
	c.RegisterPreSpilled(v, slot)

	instr, gotSlot := c.Spill(&fn.Values, v)
	if instr != nil {
		t.Fatal("a pre-registered value must not be spilled again")
	}
	if gotSlot != slot {
		t.Fatalf("expected the pre-registered slot %v, got %v", slot, gotSlot)
	}
}

func TestCacheFillFreshAllocatesNewIdentity(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	v := fn.Values.Alloc(ir.UPred)

	c := NewCache(NewSpillFor(ir.UPred), consttracker.New())
	_, slot := c.Spill(&fn.Values, v)
	c.RegisterPreSpilled(v, slot)

	fresh, fillInstr := c.FillFresh(&fn.Values, v)
	if fresh == v {
		t.Fatal("FillFresh must mint a new identity distinct from the original")
	}
	dst, ok := fillInstr.Dsts[0].AsSSA()
	if !ok || dst != fresh {
		t.Fatal("FillFresh's instruction must define the fresh identity it returned")
	}
}
