package postsched

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

func TestEstimateVariableLatencyMemoryOpsAreThirtyTwo(t *testing.T) {
	if got := estimateVariableLatency(75, ir.OpLd); got != 32 {
		t.Fatalf("Ld: got %d, want 32", got)
	}
}

func TestEstimateVariableLatencyDFmaSlowerThanDAdd(t *testing.T) {
	fma := estimateVariableLatency(75, ir.OpDFma)
	add := estimateVariableLatency(75, ir.OpDAdd)
	if fma <= add {
		t.Fatalf("DFma (%d) should cost more than DAdd (%d)", fma, add)
	}
}

func TestEstimateVariableLatencyPanicsOnUnestimatedOp(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an op with no variable-latency estimate")
		}
	}()
	estimateVariableLatency(75, ir.OpIAdd3)
}
