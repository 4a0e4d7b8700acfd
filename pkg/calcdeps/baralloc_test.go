package calcdeps

import "testing"

func TestBarAllocStartsAllFree(t *testing.T) {
	b := newBarAlloc()
	bar, ok := b.tryFindFreeBar()
	if !ok || bar != 0 {
		t.Fatalf("expected bar 0 free first, got bar=%d ok=%v", bar, ok)
	}
}

func TestBarAllocSetAndFree(t *testing.T) {
	b := newBarAlloc()
	b.setBarDep(2, 100)
	if b.barIsFree(2) {
		t.Fatal("bar 2 should be bound")
	}
	if dep, ok := b.getBarForDep(100); !ok || dep != 2 {
		t.Fatalf("getBarForDep(100) = %d, %v; want 2, true", dep, ok)
	}
	b.freeBar(2)
	if !b.barIsFree(2) {
		t.Fatal("bar 2 should be free after freeBar")
	}
}

func TestBarAllocFreeSomeBarEvictsOldest(t *testing.T) {
	b := newBarAlloc()
	for i := uint8(0); i < 6; i++ {
		b.setBarDep(i, int(i)*10)
	}
	// dep token 0 (bound to bar 0) is the smallest/oldest.
	evicted := b.freeSomeBar()
	if evicted != 0 {
		t.Fatalf("expected bar 0 (oldest dep) evicted, got bar %d", evicted)
	}
	if !b.barIsFree(0) {
		t.Fatal("evicted bar should now be free")
	}
}

func TestBarAllocGetBarForDepMissing(t *testing.T) {
	b := newBarAlloc()
	if _, ok := b.getBarForDep(42); ok {
		t.Fatal("expected no bar bound to an unused dep token")
	}
}
