package unionfind

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func val(alloc *ir.SSAValueAllocator) ir.SSAValue { return alloc.Alloc(ir.GPR) }

func TestFindOnUnseenValueIsItself(t *testing.T) {
	alloc := &ir.SSAValueAllocator{}
	v := val(alloc)
	u := New()
	if u.Find(v) != v {
		t.Fatal("an unseen value should be its own representative")
	}
}

func TestUnionMakesSecondResolveToFirst(t *testing.T) {
	alloc := &ir.SSAValueAllocator{}
	a, b := val(alloc), val(alloc)
	u := New()
	u.Union(a, b)
	if u.Find(b) != a {
		t.Fatal("Find(b) should resolve to a after Union(a, b)")
	}
	if u.Find(a) != a {
		t.Fatal("Find(a) should still resolve to a")
	}
}

func TestUnionChainsCollapseViaPathCompression(t *testing.T) {
	alloc := &ir.SSAValueAllocator{}
	a, b, c := val(alloc), val(alloc), val(alloc)
	u := New()
	u.Union(a, b)
	u.Union(b, c)
	if u.Find(c) != a {
		t.Fatalf("Find(c) should resolve through b to a, got %v want %v", u.Find(c), a)
	}
}

func TestIsEmpty(t *testing.T) {
	u := New()
	if !u.IsEmpty() {
		t.Fatal("a fresh UnionFind should be empty")
	}
	alloc := &ir.SSAValueAllocator{}
	u.Union(val(alloc), val(alloc))
	if u.IsEmpty() {
		t.Fatal("a UnionFind with a recorded union should not be empty")
	}
}
