package spill

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func TestChooserKeepsLargestNextUse(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	a := fn.Values.Alloc(ir.GPR)
	b := fn.Values.Alloc(ir.GPR)
	c := fn.Values.Alloc(ir.GPR)

	got := ChooseSpillVictims(map[ir.SSAValue]int{a: 10, b: 50, c: 5}, nil, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 victims, got %d", len(got))
	}
	want := map[ir.SSAValue]bool{a: true, b: true}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("victim %v should not have been chosen over the nearer-use candidate", v)
		}
	}
}

func TestChooserSkipsPinned(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	a := fn.Values.Alloc(ir.GPR)
	b := fn.Values.Alloc(ir.GPR)

	got := ChooseSpillVictims(map[ir.SSAValue]int{a: 100, b: 1}, map[ir.SSAValue]struct{}{a: {}}, 1)
	if len(got) != 1 || got[0] != b {
		t.Fatalf("expected pinned candidate a to be skipped, got %v", got)
	}
}

func TestChooseKeepCandidatesKeepsSmallestNextUse(t *testing.T) {
	fn := ir.NewFunction("main", nil)
	a := fn.Values.Alloc(ir.GPR)
	b := fn.Values.Alloc(ir.GPR)
	c := fn.Values.Alloc(ir.GPR)

	got := ChooseKeepCandidates(map[ir.SSAValue]int{a: 10, b: 50, c: 5}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(got))
	}
	want := map[ir.SSAValue]bool{a: true, c: true}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("kept %v should have been one of the soonest-use candidates", v)
		}
	}
}
