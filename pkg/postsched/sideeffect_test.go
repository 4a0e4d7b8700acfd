package postsched

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func TestSideEffectTypeAluIsNone(t *testing.T) {
	if got := sideEffectType(ir.OpIAdd3); got != SideEffectNone {
		t.Fatalf("IAdd3: got %v, want SideEffectNone", got)
	}
}

func TestSideEffectTypeLoadIsMemory(t *testing.T) {
	if got := sideEffectType(ir.OpLd); got != SideEffectMemory {
		t.Fatalf("Ld: got %v, want SideEffectMemory", got)
	}
}

func TestSideEffectTypeExitIsBarrier(t *testing.T) {
	if got := sideEffectType(ir.OpExit); got != SideEffectBarrier {
		t.Fatalf("Exit: got %v, want SideEffectBarrier", got)
	}
}

func TestSideEffectTypePanicsOnUnclassifiedOp(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unclassified op")
		}
	}()
	sideEffectType(ir.Op(255))
}
