package postsched

import (
	"testing"

	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/smcap"
)

// buildLoadAddIndependentExit builds a block with a scoreboarded load into
// r0, an independent ALU op into r2 that does not touch r0, an add that
// consumes r0, and an exit. A good schedule hoists the independent op
// between the load and its consumer to hide the load's latency.
func buildLoadAddIndependentExit() *ir.Function {
	r0 := ir.NewRegRef(ir.GPR, 0)
	r1 := ir.NewRegRef(ir.GPR, 1)
	r2 := ir.NewRegRef(ir.GPR, 2)

	ld := &ir.Instruction{
		Op:   ir.OpLd,
		Dsts: []ir.Dst{ir.NewRegDst(r0)},
	}
	indep := &ir.Instruction{
		Op:   ir.OpIAdd3,
		Srcs: []ir.Src{ir.NewImmSrc(1), ir.NewImmSrc(2)},
		Dsts: []ir.Dst{ir.NewRegDst(r2)},
	}
	add := &ir.Instruction{
		Op:   ir.OpIAdd3,
		Srcs: []ir.Src{ir.NewRegSrc(r0), ir.NewImmSrc(1)},
		Dsts: []ir.Dst{ir.NewRegDst(r1)},
	}
	exit := &ir.Instruction{Op: ir.OpExit}

	block := &ir.BasicBlock{Instrs: []*ir.Instruction{ld, indep, add, exit}}
	cfg := ir.NewCFG([]*ir.BasicBlock{block}, [][]int{nil})
	return ir.NewFunction("main", cfg)
}

func TestSchedBlockPreservesInstructionCount(t *testing.T) {
	fn := buildLoadAddIndependentExit()
	sm := smcap.New(75)

	origCount := len(fn.CFG.Blocks[0].Instrs)
	out, _ := schedBlock(sm, fn.CFG.Blocks[0].Instrs)
	if len(out) != origCount {
		t.Fatalf("got %d instructions, want %d", len(out), origCount)
	}
}

func TestSchedBlockKeepsLoadBeforeItsConsumer(t *testing.T) {
	fn := buildLoadAddIndependentExit()
	sm := smcap.New(75)

	out, _ := schedBlock(sm, fn.CFG.Blocks[0].Instrs)

	ldPos, addPos := -1, -1
	for i, instr := range out {
		if instr.Op == ir.OpLd {
			ldPos = i
		}
		if instr.Op == ir.OpIAdd3 && len(instr.Srcs) > 0 && instr.Srcs[0].Kind == ir.SrcReg {
			addPos = i
		}
	}
	if ldPos == -1 || addPos == -1 {
		t.Fatal("expected to find both the load and its consuming add")
	}
	if addPos < ldPos {
		t.Fatalf("add (pos %d) scheduled before the load (pos %d) it reads from", addPos, ldPos)
	}
}

func TestSchedBlockKeepsExitLast(t *testing.T) {
	fn := buildLoadAddIndependentExit()
	sm := smcap.New(75)

	out, _ := schedBlock(sm, fn.CFG.Blocks[0].Instrs)

	if out[len(out)-1].Op != ir.OpExit {
		t.Fatalf("last instruction is %s, want exit", out[len(out)-1].Op)
	}
}

func TestSchedFunctionPanicsOnCountMismatchNeverTriggered(t *testing.T) {
	fn := buildLoadAddIndependentExit()
	sm := smcap.New(75)

	cycles := SchedFunction(fn, sm)
	if cycles == 0 {
		t.Fatal("expected a nonzero predicted cycle count")
	}
	if len(fn.CFG.Blocks[0].Instrs) != 4 {
		t.Fatalf("got %d instructions after scheduling, want 4", len(fn.CFG.Blocks[0].Instrs))
	}
}

func TestSchedShaderAccumulatesStaticCycles(t *testing.T) {
	fn := buildLoadAddIndependentExit()
	sm := smcap.New(75)
	shader := &ir.Shader{Model: sm, Functions: []*ir.Function{fn}}

	SchedShader(shader)

	if shader.Info.NumStaticCycles == 0 {
		t.Fatal("expected a nonzero static cycle count")
	}
}
