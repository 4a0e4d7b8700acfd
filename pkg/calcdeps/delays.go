package calcdeps

import (
	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/regtracker"
)

// useKey names the instruction (by ip, within the block being processed)
// and operand slot that last touched a register slot. SrcIdx is -1 for a
// predicate read (the PAW hazard).
type useKey struct {
	IP     int
	SrcIdx int
}

const predSrcIdx = -1

func maxU32(a, b uint32) uint32 {
	if b > a {
		return b
	}
	return a
}

// calcDelays walks every block of fn backwards, turning each instruction's
// remaining register/predicate hazards into a fixed delay field, then
// splits any delay that overflows a single instruction's MaxInstrDelay into
// trailing Nops, retires SrcBar into a plain Nop, and appends the
// blob-observed 2-cycle Nop after any instruction with exec latency > 1.
// Returns the sum, across all blocks, of each block's minimum static cycle
// count.
func calcDelays(fn *ir.Function, sm ir.ShaderModel) uint64 {
	var minStaticCycles uint64

	for _, b := range fn.CFG.Blocks {
		cycle := uint32(0)
		instrCycle := make([]uint32, len(b.Instrs))
		uses := regtracker.New(func() regUse[useKey] { return regUse[useKey]{} })
		var bars [ir.NumScoreboards]uint32

		for ip := len(b.Instrs) - 1; ip >= 0; ip-- {
			instr := b.Instrs[ip]

			minStartCycle := cycle + sm.ExecLatency(instr.Op)
			if bar, ok := instr.Deps.RdBar(); ok {
				minStartCycle = maxU32(minStartCycle, bars[bar]+2)
			}
			if bar, ok := instr.Deps.WrBar(); ok {
				minStartCycle = maxU32(minStartCycle, bars[bar]+2)
			}

			uses.ForEachInstrDst(instr, func(i int, u *regUse[useKey]) {
				switch u.kind {
				case ruNone:
					minStartCycle = maxU32(minStartCycle, sm.WorstLatency(instr.Op))
				case ruWrite:
					s := instrCycle[u.write.IP] + sm.WawLatency(instr.Op)
					minStartCycle = maxU32(minStartCycle, s)
				case ruReads:
					for _, r := range u.reads {
						c := instrCycle[r.IP]
						var s uint32
						if r.SrcIdx == predSrcIdx {
							s = c + sm.PawLatency(instr.Op)
						} else {
							s = c + sm.RawLatency(instr.Op)
						}
						minStartCycle = maxU32(minStartCycle, s)
					}
				}
			})
			uses.ForEachInstrSrc(instr, func(i int, u *regUse[useKey]) {
				if u.kind == ruWrite {
					s := instrCycle[u.write.IP] + sm.WarLatency(instr.Op)
					minStartCycle = maxU32(minStartCycle, s)
				}
			})

			delay := minStartCycle - cycle
			instr.Deps.SetDelay(delay)

			instrCycle[ip] = minStartCycle

			// Record writes before reads: we are walking backwards, so a
			// dst recorded here becomes visible to instructions earlier in
			// program order (processed in later loop iterations).
			uses.ForEachInstrDst(instr, func(i int, u *regUse[useKey]) {
				u.setWrite(useKey{IP: ip, SrcIdx: i})
			})
			uses.ForEachInstrPred(instr, func(u *regUse[useKey]) {
				u.addRead(useKey{IP: ip, SrcIdx: predSrcIdx})
			})
			uses.ForEachInstrSrc(instr, func(i int, u *regUse[useKey]) {
				u.addRead(useKey{IP: ip, SrcIdx: i})
			})

			for bar := 0; bar < ir.NumScoreboards; bar++ {
				if instr.Deps.WtBarMask&(1<<uint(bar)) != 0 {
					bars[bar] = minStartCycle
				}
			}

			cycle = minStartCycle
		}
		minStaticCycles += uint64(cycle)
	}

	fn.MapInstrs(func(instr *ir.Instruction) []*ir.Instruction {
		switch {
		case uint32(instr.Deps.Delay) > uint32(ir.MaxInstrDelay):
			delay := uint32(instr.Deps.Delay) - uint32(ir.MaxInstrDelay)
			instr.Deps.SetDelay(uint32(ir.MaxInstrDelay))
			out := []*ir.Instruction{instr}
			for delay > 0 {
				d := delay
				if d > uint32(ir.MaxInstrDelay) {
					d = uint32(ir.MaxInstrDelay)
				}
				out = append(out, ir.NewNop(uint8(d)))
				delay -= d
			}
			return out
		case instr.Op == ir.OpSrcBar:
			instr.Op = ir.OpNop
			return []*ir.Instruction{instr}
		case sm.ExecLatency(instr.Op) > 1:
			return []*ir.Instruction{instr, ir.NewNop(2)}
		default:
			return []*ir.Instruction{instr}
		}
	})

	return minStaticCycles
}
