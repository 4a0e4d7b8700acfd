package calcdeps

import "github.com/nouveau-go/nakcore/pkg/ir"

const noDep = -1

// barAlloc assigns dependency tokens to the fixed 6 physical scoreboards,
// evicting the least-recently-bound barrier (by dep token order, which runs
// oldest-first) when all 6 are in use. Grounded on calc_instr_deps.rs's
// BarAlloc.
type barAlloc struct {
	barDep [ir.NumScoreboards]int
}

func newBarAlloc() *barAlloc {
	b := &barAlloc{}
	for i := range b.barDep {
		b.barDep[i] = noDep
	}
	return b
}

func (b *barAlloc) barIsFree(bar uint8) bool { return b.barDep[bar] == noDep }

func (b *barAlloc) setBarDep(bar uint8, dep int) { b.barDep[bar] = dep }

func (b *barAlloc) freeBar(bar uint8) { b.barDep[bar] = noDep }

func (b *barAlloc) tryFindFreeBar() (uint8, bool) {
	for bar := uint8(0); int(bar) < ir.NumScoreboards; bar++ {
		if b.barIsFree(bar) {
			return bar, true
		}
	}
	return 0, false
}

// freeSomeBar evicts the barrier bound to the oldest (smallest) dep token
// and returns it.
func (b *barAlloc) freeSomeBar() uint8 {
	bar := uint8(0)
	for i := uint8(1); int(i) < ir.NumScoreboards; i++ {
		if b.barDep[i] < b.barDep[bar] {
			bar = i
		}
	}
	b.freeBar(bar)
	return bar
}

func (b *barAlloc) getBarForDep(dep int) (uint8, bool) {
	for bar := uint8(0); int(bar) < ir.NumScoreboards; bar++ {
		if b.barDep[bar] == dep {
			return bar, true
		}
	}
	return 0, false
}
