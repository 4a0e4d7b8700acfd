package consttracker

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func copyOf(dst ir.SSAValue, src ir.Src) *ir.Instruction {
	return &ir.Instruction{
		Op:   ir.OpCopy,
		Dsts: []ir.Dst{ir.NewSSADst(dst)},
		Srcs: []ir.Src{src},
	}
}

func TestAddCopyRecordsImmediate(t *testing.T) {
	tr := New()
	var alloc ir.SSAValueAllocator
	dst := alloc.Alloc(ir.GPR)

	tr.AddCopy(copyOf(dst, ir.NewImmSrc(7)))

	if !tr.Contains(dst) {
		t.Fatal("expected immediate copy to be tracked as constant")
	}
	src, ok := tr.Get(dst)
	if !ok || src.Imm != 7 {
		t.Fatalf("Get(dst) = %+v, %v; want Imm=7", src, ok)
	}
}

func TestAddCopyIgnoresNonConstant(t *testing.T) {
	tr := New()
	var alloc ir.SSAValueAllocator
	other := alloc.Alloc(ir.GPR)
	dst := alloc.Alloc(ir.GPR)

	tr.AddCopy(copyOf(dst, ir.NewSSASrc(other)))

	if tr.Contains(dst) {
		t.Fatal("copy of a non-constant SSA value must not be tracked")
	}
}

func TestAddCopyBoundCBufIsConstant(t *testing.T) {
	tr := New()
	var alloc ir.SSAValueAllocator
	dst := alloc.Alloc(ir.GPR)

	src := ir.Src{Kind: ir.SrcCBuf, CBuf: ir.CBufRef{Kind: ir.CBufBinding, Binding: 0, Offset: 16}}
	tr.AddCopy(copyOf(dst, src))

	if !tr.Contains(dst) {
		t.Fatal("bound cbuf copy should be tracked as constant")
	}
}

func TestAddCopyBindlessCBufIsNotConstant(t *testing.T) {
	tr := New()
	var alloc ir.SSAValueAllocator
	dst := alloc.Alloc(ir.GPR)

	src := ir.Src{Kind: ir.SrcCBuf, CBuf: ir.CBufRef{
		Kind: ir.CBufBindlessUGPR,
		UGPR: ir.NewRegRef(ir.UGPR, 2),
	}}
	tr.AddCopy(copyOf(dst, src))

	if tr.Contains(dst) {
		t.Fatal("bindless-UGPR cbuf reads are not freely re-materialisable")
	}
}

func TestAddCopyPanicsOnWrongOp(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-OpCopy instruction")
		}
	}()
	tr := New()
	tr.AddCopy(&ir.Instruction{Op: ir.OpMov})
}

func TestGetMissingReturnsFalse(t *testing.T) {
	tr := New()
	var alloc ir.SSAValueAllocator
	ssa := alloc.Alloc(ir.GPR)
	if _, ok := tr.Get(ssa); ok {
		t.Fatal("Get on untracked SSA value should return false")
	}
}
