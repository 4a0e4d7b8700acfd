package calcdeps

import "github.com/nouveau-go/nakcore/pkg/ir"

// AssignDepsSerial is the conservative debug fallback: every instruction
// that writes anything sets write barrier 0, every instruction that reads
// anything (including through its predicate) sets read barrier 1, each
// later instruction of the block waits on whichever of the two have been
// set so far, and a branch waits on all six. An instruction that needs a
// yield only sets the yield flag. No delay model runs at all. Grounded on
// calc_instr_deps.rs's assign_deps_serial; CalcInstrDeps runs it when its
// serial argument is true, for bisecting scheduler regressions.
func AssignDepsSerial(shader *ir.Shader) {
	for _, fn := range shader.Functions {
		for _, b := range fn.CFG.Blocks {
			var wt uint8
			for _, instr := range b.Instrs {
				switch {
				case instr.NeedsYield():
					instr.Deps.Yield = true
				case instr.IsBranch():
					instr.Deps.AddWtBarMask(0x3f)
				default:
					instr.Deps.AddWtBarMask(wt)
					if len(instr.Dsts) > 0 {
						instr.Deps.SetWrBar(0)
						wt |= 1 << 0
					}
					if !instr.Pred.IsNone() || len(instr.Srcs) > 0 {
						instr.Deps.SetRdBar(1)
						wt |= 1 << 1
					}
				}
			}
		}
	}
}
