// Package calcdeps implements C4: it walks a function twice, once to decide
// which register writes need a hardware scoreboard at all and assign each
// one the physical barrier it waits on (assignBarriers), and once more,
// backwards, to turn every remaining register/predicate dependency into a
// fixed instruction delay (calcDelays). Grounded on calc_instr_deps.rs.
package calcdeps

import (
	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/regtracker"
)

// assignBarriers decides which writes are scoreboarded and binds each one
// to a physical barrier, recording wait masks and rd/wr barrier indices on
// every instruction's Deps.
func assignBarriers(fn *ir.Function, sm ir.ShaderModel) {
	uses := regtracker.New(func() regUse[int] { return regUse[int]{} })
	deps := newDepGraph()

	for bi, b := range fn.CFG.Blocks {
		for ip, instr := range b.Instrs {
			key := instrKey{bi, ip}
			if instr.IsBranch() {
				deps.addBarrier(key)
				continue
			}

			var waits []int
			uses.ForEachInstrPred(instr, func(u *regUse[int]) {
				old := u.clearWrite()
				waits = append(waits, old.deps()...)
			})

			if sm.OpNeedsScoreboard(instr.Op) {
				rd, wr := deps.addInstr(key)
				uses.ForEachInstrSrc(instr, func(_ int, u *regUse[int]) {
					deps.addSignal(rd)
					old := u.addRead(rd)
					waits = append(waits, old.deps()...)
				})
				uses.ForEachInstrDst(instr, func(_ int, u *regUse[int]) {
					deps.addSignal(wr)
					old := u.setWrite(wr)
					for _, dep := range old.deps() {
						if dep != rd {
							waits = append(waits, dep)
						}
					}
				})
			} else {
				uses.ForEachInstrSrc(instr, func(_ int, u *regUse[int]) {
					old := u.clearWrite()
					waits = append(waits, old.deps()...)
				})
				uses.ForEachInstrDst(instr, func(_ int, u *regUse[int]) {
					old := u.clear()
					waits = append(waits, old.deps()...)
				})
			}
			deps.addWaits(key, waits)
		}
	}

	bars := newBarAlloc()
	for bi, b := range fn.CFG.Blocks {
		for ip, instr := range b.Instrs {
			key := instrKey{bi, ip}

			var waitMask uint8
			for _, dep := range deps.getInstrWaits(key) {
				if bar, ok := bars.getBarForDep(dep); ok {
					waitMask |= 1 << bar
					bars.freeBar(bar)
				}
			}
			instr.Deps.AddWtBarMask(waitMask)

			if instr.NeedsYield() {
				instr.Deps.Yield = true
			}

			if !sm.OpNeedsScoreboard(instr.Op) {
				continue
			}

			rdDep, wrDep := deps.getInstrDeps(key)
			if deps.depIsWaitedAfter(rdDep, key) {
				rdBar, ok := bars.tryFindFreeBar()
				if !ok {
					rdBar = bars.freeSomeBar()
					instr.Deps.AddWtBar(rdBar)
				}
				bars.setBarDep(rdBar, rdDep)
				instr.Deps.SetRdBar(rdBar)
			}
			if deps.depIsWaitedAfter(wrDep, key) {
				wrBar, ok := bars.tryFindFreeBar()
				if !ok {
					wrBar = bars.freeSomeBar()
					instr.Deps.AddWtBar(wrBar)
				}
				bars.setBarDep(wrBar, wrDep)
				instr.Deps.SetWrBar(wrBar)
			}
		}
	}
}

// CalcInstrDeps runs C4 over every function of shader: assigns scoreboard
// barriers, computes fixed delays, and returns the sum across all functions
// of the minimum static cycle count calcDelays derived. When serial is
// true, it instead runs the conservative two-barrier fallback
// (AssignDepsSerial) and returns 0.
func CalcInstrDeps(shader *ir.Shader, serial bool) uint64 {
	if serial {
		AssignDepsSerial(shader)
		return 0
	}
	var total uint64
	for _, fn := range shader.Functions {
		assignBarriers(fn, shader.Model)
		total += calcDelays(fn, shader.Model)
	}
	return total
}
