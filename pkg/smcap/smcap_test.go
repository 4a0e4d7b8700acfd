package smcap

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func TestNewRejectsPreSM70(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for sm < 70")
		}
	}()
	New(60)
}

func TestNumRegsGPRReservesTwo(t *testing.T) {
	m := New(70)
	if got := m.NumRegs(ir.GPR); got != 253 {
		t.Fatalf("NumRegs(GPR) = %d, want 253", got)
	}
}

func TestNumRegsUniformGatedBySM73(t *testing.T) {
	sm70 := New(70)
	if got := sm70.NumRegs(ir.UGPR); got != 0 {
		t.Fatalf("sm70 NumRegs(UGPR) = %d, want 0 (no uniform datapath below sm73)", got)
	}
	sm75 := New(75)
	if got := sm75.NumRegs(ir.UGPR); got != 63 {
		t.Fatalf("sm75 NumRegs(UGPR) = %d, want 63", got)
	}
}

func TestOpCanBeUniformRequiresUniformALU(t *testing.T) {
	sm70 := New(70)
	if sm70.OpCanBeUniform(ir.OpMov) {
		t.Fatal("sm70 has no uniform datapath; OpMov must not be uniform-eligible")
	}
	sm75 := New(75)
	if !sm75.OpCanBeUniform(ir.OpMov) {
		t.Fatal("sm75 OpMov should be uniform-eligible")
	}
	if sm75.OpCanBeUniform(ir.OpFAdd) {
		t.Fatal("OpFAdd is never uniform-eligible on any model")
	}
}

func TestOpNeedsScoreboardMemoryAndTexture(t *testing.T) {
	m := New(75)
	for _, op := range []ir.Op{ir.OpLd, ir.OpTex, ir.OpMuFu, ir.OpS2R} {
		if !m.OpNeedsScoreboard(op) {
			t.Fatalf("%s should need a scoreboard", op)
		}
	}
	for _, op := range []ir.Op{ir.OpFAdd, ir.OpMov, ir.OpNop} {
		if m.OpNeedsScoreboard(op) {
			t.Fatalf("%s should not need a scoreboard", op)
		}
	}
}

func TestExecLatencyBarDependsOnSM(t *testing.T) {
	sm75 := New(75)
	if got := sm75.ExecLatency(ir.OpBar); got != 5 {
		t.Fatalf("sm75 ExecLatency(OpBar) = %d, want 5", got)
	}
	sm80 := New(80)
	if got := sm80.ExecLatency(ir.OpBar); got != 6 {
		t.Fatalf("sm80 ExecLatency(OpBar) = %d, want 6", got)
	}
}

func TestRawLatencySlowFloatOpsPreAmpere(t *testing.T) {
	sm70 := New(70)
	if got := sm70.RawLatency(ir.OpDAdd); got != 13 {
		t.Fatalf("sm70 RawLatency(OpDAdd) = %d, want 13", got)
	}
	if got := sm70.RawLatency(ir.OpIAdd3); got != 6 {
		t.Fatalf("sm70 RawLatency(OpIAdd3) = %d, want 6", got)
	}
}

func TestWarLatencyIsFixedFourCycles(t *testing.T) {
	m := New(80)
	if got := m.WarLatency(ir.OpFAdd); got != 4 {
		t.Fatalf("WarLatency = %d, want 4", got)
	}
}

func TestPawLatencyVoltaSetPIsSlower(t *testing.T) {
	sm70 := New(70)
	if got := sm70.PawLatency(ir.OpDSetP); got != 15 {
		t.Fatalf("Volta PawLatency(OpDSetP) = %d, want 15", got)
	}
	if got := sm70.PawLatency(ir.OpIAdd3); got != 13 {
		t.Fatalf("Volta PawLatency(OpIAdd3) = %d, want 13", got)
	}
}
