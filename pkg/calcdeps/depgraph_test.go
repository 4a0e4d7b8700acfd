package calcdeps

import "testing"

func TestDepGraphAddWaitsDropsUnsignalledDep(t *testing.T) {
	g := newDepGraph()
	rd, wr := g.addInstr(instrKey{0, 0})
	// Neither rd nor wr was signalled (addSignal never called), so a wait on
	// them must be dropped.
	g.addWaits(instrKey{0, 1}, []int{rd, wr})
	if waits := g.getInstrWaits(instrKey{0, 1}); len(waits) != 0 {
		t.Fatalf("expected no waits recorded for unsignalled deps, got %v", waits)
	}
}

func TestDepGraphAddWaitsRecordsFirstWaiterOnly(t *testing.T) {
	g := newDepGraph()
	rd, _ := g.addInstr(instrKey{0, 0})
	g.addSignal(rd)

	g.addWaits(instrKey{0, 1}, []int{rd})
	if waits := g.getInstrWaits(instrKey{0, 1}); len(waits) != 1 || waits[0] != rd {
		t.Fatalf("expected instr 1 to be the first waiter on rd, got %v", waits)
	}

	// A second instruction trying to wait on the same dep must not record
	// it again: it's already been claimed.
	g.addWaits(instrKey{0, 2}, []int{rd})
	if waits := g.getInstrWaits(instrKey{0, 2}); len(waits) != 0 {
		t.Fatalf("expected no waits for a dep already claimed, got %v", waits)
	}
}

func TestDepGraphWaitOnWriteAlsoClearsRead(t *testing.T) {
	g := newDepGraph()
	rd, wr := g.addInstr(instrKey{0, 0})
	g.addSignal(rd)
	g.addSignal(wr)

	// Waiting on wr should implicitly retire rd (wr's readDep), so a
	// simultaneous wait on rd is not also recorded.
	g.addWaits(instrKey{0, 1}, []int{wr, rd})
	waits := g.getInstrWaits(instrKey{0, 1})
	if len(waits) != 1 || waits[0] != wr {
		t.Fatalf("expected only wr recorded (rd implied), got %v", waits)
	}
}

func TestDepGraphAddBarrierClearsActive(t *testing.T) {
	g := newDepGraph()
	rd, wr := g.addInstr(instrKey{0, 0})
	g.addSignal(rd)
	g.addSignal(wr)

	g.addBarrier(instrKey{0, 5})
	if len(g.active) != 0 {
		t.Fatalf("addBarrier should drain the active set, got %d entries", len(g.active))
	}
}

func TestDepGraphDepIsWaitedAfter(t *testing.T) {
	g := newDepGraph()
	rd, _ := g.addInstr(instrKey{0, 0})
	g.addSignal(rd)
	g.addWaits(instrKey{0, 3}, []int{rd})

	if !g.depIsWaitedAfter(rd, instrKey{0, 1}) {
		t.Fatal("dep waited at ip 3 should count as waited-after for an earlier key")
	}
	if g.depIsWaitedAfter(rd, instrKey{0, 3}) {
		t.Fatal("a key equal to the first-wait key is not strictly before it")
	}
	if g.depIsWaitedAfter(rd, instrKey{0, 10}) {
		t.Fatal("dep waited at ip 3 is not waited-after a later key")
	}
}

func TestDepGraphGetInstrDepsPanicsOnMissingKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an instruction with no recorded deps")
		}
	}()
	g := newDepGraph()
	g.getInstrDeps(instrKey{9, 9})
}
