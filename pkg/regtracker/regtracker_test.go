package regtracker

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func TestTrackerSlotsIsolatedPerFile(t *testing.T) {
	tr := New(func() int { return 0 })

	gpr := ir.NewRegRef(ir.GPR, 4)
	pred := ir.NewRegRef(ir.Pred, 4)

	tr.Slots(gpr)[0] = 7
	if got := tr.Slots(pred)[0]; got != 0 {
		t.Fatalf("writing GPR slot 4 leaked into Pred slot 4: got %d", got)
	}
	if got := tr.Slots(gpr)[0]; got != 7 {
		t.Fatalf("GPR slot 4 = %d, want 7", got)
	}
}

func TestTrackerSlotsRange(t *testing.T) {
	tr := New(func() int { return -1 })
	r := ir.RegRef{File: ir.GPR, Start: 2, End: 5}
	slots := tr.Slots(r)
	if len(slots) != 3 {
		t.Fatalf("len(slots) = %d, want 3", len(slots))
	}
	for i := range slots {
		slots[i] = i
	}
	if tr.reg[2] != 0 || tr.reg[3] != 1 || tr.reg[4] != 2 {
		t.Fatalf("writes through Slots did not land in backing array: %v", tr.reg[2:5])
	}
}

func TestTrackerBarHasNoSlots(t *testing.T) {
	tr := New(func() int { return 0 })
	r := ir.NewRegRef(ir.Bar, 0)
	if slots := tr.Slots(r); slots != nil {
		t.Fatalf("Bar should have no backing slots, got %v", slots)
	}
}

func TestTrackerMemPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic indexing Mem file")
		}
	}()
	tr := New(func() int { return 0 })
	tr.Slots(ir.NewRegRef(ir.Mem, 0))
}

func TestForEachInstrSrcVisitsRegAndBindlessCBuf(t *testing.T) {
	tr := New(func() int { return 0 })
	instr := &ir.Instruction{
		Op: ir.OpMov,
		Srcs: []ir.Src{
			ir.NewRegSrc(ir.NewRegRef(ir.GPR, 10)),
			{Kind: ir.SrcCBuf, CBuf: ir.CBufRef{
				Kind: ir.CBufBindlessUGPR,
				UGPR: ir.NewRegRef(ir.UGPR, 3),
			}},
			ir.NewImmSrc(42),
		},
	}

	visited := map[int]bool{}
	tr.ForEachInstrSrc(instr, func(srcIdx int, slot *int) {
		visited[srcIdx] = true
		*slot = 99
	})

	if !visited[0] || !visited[1] {
		t.Fatalf("expected srcIdx 0 and 1 visited, got %v", visited)
	}
	if visited[2] {
		t.Fatal("immediate source must not be visited")
	}
	if tr.reg[10] != 99 {
		t.Fatalf("reg slot 10 = %d, want 99", tr.reg[10])
	}
	if tr.ureg[3] != 99 {
		t.Fatalf("ureg slot 3 = %d, want 99", tr.ureg[3])
	}
}

func TestForEachInstrDstVisitsRegOnly(t *testing.T) {
	tr := New(func() int { return 0 })
	instr := &ir.Instruction{
		Op: ir.OpMov,
		Dsts: []ir.Dst{
			ir.NewRegDst(ir.NewRegRef(ir.Pred, 1)),
			ir.NewSSADst(ir.SSAValue{}),
		},
	}
	count := 0
	tr.ForEachInstrDst(instr, func(dstIdx int, slot *int) {
		count++
		*slot = 5
	})
	if count != 1 {
		t.Fatalf("expected exactly 1 register dst visited, got %d", count)
	}
	if tr.pred[1] != 5 {
		t.Fatalf("pred slot 1 = %d, want 5", tr.pred[1])
	}
}
