package spill

import (
	"container/heap"
	"sort"

	"github.com/nouveau-go/nakcore/pkg/ir"
)

// ssaNextUse pairs a spill candidate with its next-use distance, the sole
// ordering key the chooser needs.
type ssaNextUse struct {
	ssa     ir.SSAValue
	nextUse int
}

// nextUseHeap is a min-heap by next-use distance (ties broken by ascending
// SSA index) — container/heap's native order. Used as a bounded "reverse
// max-heap" of size <= count: holding only the count largest-next-use
// candidates admitted so far means the smallest among them — the next one
// an incoming candidate must beat to be admitted — always sits at the
// root, where it's O(log count) to evict.
type nextUseHeap []ssaNextUse

func (h nextUseHeap) Len() int { return len(h) }
func (h nextUseHeap) Less(i, j int) bool {
	if h[i].nextUse != h[j].nextUse {
		return h[i].nextUse < h[j].nextUse
	}
	return h[i].ssa.Idx() < h[j].ssa.Idx()
}
func (h nextUseHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nextUseHeap) Push(x any)   { *h = append(*h, x.(ssaNextUse)) }
func (h *nextUseHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Chooser retains the count candidates furthest from their next use —
// Belady's optimal eviction rule restricted to the next-use information
// liveness tracks. Grounded on spec.md's §4.7 SpillChooser description: "a
// reverse max-heap of size <= count keyed by next-use, only admitting
// candidates whose next-use exceeds the rolling minimum of rejected ones".
type Chooser struct {
	count int
	h     nextUseHeap
}

// NewChooser builds a Chooser that retains at most count candidates.
func NewChooser(count int) *Chooser { return &Chooser{count: count} }

// Offer considers ssa, whose next use is nextUse instructions away, as a
// spill victim.
func (c *Chooser) Offer(ssa ir.SSAValue, nextUse int) {
	if c.count <= 0 {
		return
	}
	if len(c.h) < c.count {
		heap.Push(&c.h, ssaNextUse{ssa: ssa, nextUse: nextUse})
		return
	}
	worst := c.h[0]
	if nextUse > worst.nextUse || (nextUse == worst.nextUse && ssa.Idx() > worst.ssa.Idx()) {
		c.h[0] = ssaNextUse{ssa: ssa, nextUse: nextUse}
		heap.Fix(&c.h, 0)
	}
}

// Chosen returns the retained spill victims, sorted by SSA index for a
// deterministic emission order.
func (c *Chooser) Chosen() []ir.SSAValue {
	out := make([]ir.SSAValue, len(c.h))
	for i, e := range c.h {
		out[i] = e.ssa
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx() < out[j].Idx() })
	return out
}

// ChooseSpillVictims is the common one-shot case: pick the count
// furthest-next-use values from candidates, skipping anything in pinned.
func ChooseSpillVictims(candidates map[ir.SSAValue]int, pinned map[ir.SSAValue]struct{}, count int) []ir.SSAValue {
	c := NewChooser(count)
	for ssa, nu := range candidates {
		if _, isPinned := pinned[ssa]; isPinned {
			continue
		}
		c.Offer(ssa, nu)
	}
	return c.Chosen()
}

// ChooseKeepCandidates returns up to count candidates with the smallest
// next-use distance — the opposite ordering from Chooser/ChooseSpillVictims,
// used to fill the resident set W at a block entry (loop header or ordinary
// join) by preferring whatever is needed soonest.
func ChooseKeepCandidates(candidates map[ir.SSAValue]int, count int) []ir.SSAValue {
	type entry struct {
		ssa     ir.SSAValue
		nextUse int
	}
	all := make([]entry, 0, len(candidates))
	for ssa, nu := range candidates {
		all = append(all, entry{ssa, nu})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].nextUse != all[j].nextUse {
			return all[i].nextUse < all[j].nextUse
		}
		return all[i].ssa.Idx() < all[j].ssa.Idx()
	})
	if count > len(all) {
		count = len(all)
	}
	out := make([]ir.SSAValue, count)
	for i := 0; i < count; i++ {
		out[i] = all[i].ssa
	}
	return out
}
