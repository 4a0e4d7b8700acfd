// Package ssarepair implements C6: restoring SSA form after a pass (chiefly
// the spiller) has rewritten a function so that some SSA value now has more
// than one definition reaching a use along different control-flow paths.
// The algorithm is Braun et al.'s "Simple and Efficient Construction of
// Static Single Assignment Form", adapted the way repair_ssa.rs adapts it:
// since blocks can't be rewritten on the fly mid-pass, defs are tracked in
// side tables first and the actual phi instructions are spliced in once
// every value has been resolved. Grounded on repair_ssa.rs.
package ssarepair

import (
	"container/heap"

	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/unionfind"
)

// phi is a phi node under construction: orig is the SSA value being merged,
// dst is its freshly allocated merged identity, and srcs maps a predecessor
// block index to the value that reaches this phi along that edge.
type phi struct {
	idx  uint32
	orig ir.SSAValue
	dst  ir.SSAValue
	srcs map[int]ir.SSAValue
}

// defTrackerBlock mirrors one CFG block's predecessor/successor shape plus
// the per-value definitions and phis discovered for it during repair.
type defTrackerBlock struct {
	pred []int
	succ []int
	defs map[ir.SSAValue]ir.SSAValue
	phis []*phi
}

// intHeap is a plain ascending min-heap of block indices: container/heap is
// already a min-heap, so no inversion is needed here (unlike postsched's
// heaps, which emulate a Rust max-heap).
type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)         { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// getSSAOrPhi resolves ssa as observed at the start of block bIdx, inserting
// a phi wherever reachable predecessors disagree. Implemented iteratively
// over an explicit block-index worklist (a min-heap, so the earliest
// unresolved block is always tackled next) rather than recursively, since a
// function with enough blocks could otherwise exhaust the Go stack.
// Grounded on repair_ssa.rs's get_ssa_or_phi.
func getSSAOrPhi(
	ssaAlloc *ir.SSAValueAllocator,
	phiAlloc *ir.PhiAllocator,
	blocks []*defTrackerBlock,
	needsSrc map[int]struct{},
	bIdx int,
	ssa ir.SSAValue,
) ir.SSAValue {
	worklist := &intHeap{bIdx}
	heap.Init(worklist)

	for {
		top := (*worklist)[0]
		b := blocks[top]

		if bSSA, ok := b.defs[ssa]; ok {
			heap.Pop(worklist)
			if worklist.Len() == 0 {
				return bSSA
			}
			continue
		}

		pushedPred := false
		var predSSA ir.SSAValue
		havePredSSA := false
		allSame := true
		for _, p := range b.pred {
			if p >= top {
				// Loop back edge: tentatively assume this needs a phi.
				allSame = false
				continue
			}
			if pSSA, ok := blocks[p].defs[ssa]; ok {
				if !havePredSSA {
					predSSA, havePredSSA = pSSA, true
				} else if predSSA != pSSA {
					allSame = false
				}
			} else {
				heap.Push(worklist, p)
				pushedPred = true
			}
		}

		if pushedPred {
			continue
		}

		var bSSA ir.SSAValue
		if allSame {
			if !havePredSSA {
				panic("ssarepair: undefined value")
			}
			bSSA = predSSA
		} else {
			phIdx := phiAlloc.Alloc()
			phSSA := ssaAlloc.Alloc(ssa.File())
			ph := &phi{idx: phIdx, orig: ssa, dst: phSSA, srcs: make(map[int]ir.SSAValue)}
			for _, p := range b.pred {
				if p >= top {
					needsSrc[p] = struct{}{}
					continue
				}
				pSSA, ok := blocks[p].defs[ssa]
				if !ok {
					panic("ssarepair: predecessor definition missing after resolution")
				}
				ph.srcs[p] = pSSA
			}
			blocks[top].phis = append(blocks[top].phis, ph)
			bSSA = phSSA
		}

		blocks[top].defs[ssa] = bSSA
		heap.Pop(worklist)
		if worklist.Len() == 0 {
			return bSSA
		}
	}
}

func popSmallest(set map[int]struct{}) int {
	min := -1
	for k := range set {
		if min == -1 || k < min {
			min = k
		}
	}
	delete(set, min)
	return min
}

// reduceTrivialPhi resolves every source of ph through ssaMap and reports
// whether ph must be kept. A phi whose only non-self source, after
// resolution, is a single distinct value is redundant: it is folded into
// ssaMap (every future reference to ph.dst now resolves to that value) and
// dropped. This only fires for the extra phis forced onto loop back edges,
// which may turn out not to have been needed once every predecessor is
// known.
func reduceTrivialPhi(ph *phi, ssaMap *unionfind.UnionFind) bool {
	var ssa ir.SSAValue
	haveSSA := false
	for p, pSSA := range ph.srcs {
		resolved := ssaMap.Find(pSSA)
		ph.srcs[p] = resolved
		if resolved == ph.dst {
			continue
		}
		if !haveSSA {
			ssa, haveSSA = resolved, true
		} else if ssa != resolved {
			return true
		}
	}
	if !haveSSA {
		panic("ssarepair: circular SSA definition")
	}
	ssaMap.Union(ssa, ph.dst)
	return false
}

// Repair restores SSA form for fn. It is a no-op if every SSA value already
// has a single definition.
func Repair(fn *ir.Function) {
	n := fn.CFG.NumBlocks()

	numDefs := make(map[ir.SSAValue]int)
	hasMultDefs := false
	for bIdx := 0; bIdx < n; bIdx++ {
		for _, instr := range fn.CFG.Block(bIdx).Instrs {
			instr.ForEachSSADef(func(ssa ir.SSAValue) {
				numDefs[ssa]++
				if numDefs[ssa] > 1 {
					hasMultDefs = true
				}
			})
		}
	}
	if !hasMultDefs {
		return
	}

	blocks := make([]*defTrackerBlock, n)
	needsSrc := make(map[int]struct{})

	for bIdx := 0; bIdx < n; bIdx++ {
		blocks[bIdx] = &defTrackerBlock{
			pred: append([]int(nil), fn.CFG.PredIndices(bIdx)...),
			succ: append([]int(nil), fn.CFG.SuccIndices(bIdx)...),
			defs: make(map[ir.SSAValue]ir.SSAValue),
		}

		for _, instr := range fn.CFG.Block(bIdx).Instrs {
			instr.ForEachSSAUseMut(func(ssa *ir.SSAValue) {
				if numDefs[*ssa] > 1 {
					*ssa = getSSAOrPhi(&fn.Values, &fn.Phis, blocks, needsSrc, bIdx, *ssa)
				}
			})
			instr.ForEachSSADefMut(func(ssa *ir.SSAValue) {
				if numDefs[*ssa] > 1 {
					newSSA := fn.Values.Alloc(ssa.File())
					blocks[bIdx].defs[*ssa] = newSSA
					*ssa = newSSA
				}
			})
		}
	}

	// Populate phi sources left dangling by back edges.
	for len(needsSrc) > 0 {
		bIdx := popSmallest(needsSrc)
		for _, sIdx := range blocks[bIdx].succ {
			if sIdx > bIdx {
				continue
			}
			for _, ph := range blocks[sIdx].phis {
				if _, ok := ph.srcs[bIdx]; !ok {
					ph.srcs[bIdx] = getSSAOrPhi(&fn.Values, &fn.Phis, blocks, needsSrc, bIdx, ph.orig)
				}
			}
		}
	}

	// Back edges always get a phi whether or not it turns out to be needed;
	// eliminate the redundant ones now that every source is known.
	ssaMap := unionfind.New()
	if fn.CFG.HasLoop() {
		toDo := true
		for toDo {
			toDo = false
			for bIdx := 0; bIdx < n; bIdx++ {
				b := blocks[bIdx]
				kept := b.phis[:0]
				for _, ph := range b.phis {
					if reduceTrivialPhi(ph, ssaMap) {
						kept = append(kept, ph)
					} else {
						toDo = true
					}
				}
				b.phis = kept
			}
		}
	}

	// Splice the surviving phis into the instruction stream and apply the
	// redundant-phi remap to every remaining use.
	for bIdx := 0; bIdx < n; bIdx++ {
		succ := fn.CFG.SuccIndices(bIdx)
		sIdx, hasSIdx := -1, false
		if len(succ) == 1 {
			sIdx, hasSIdx = succ[0], true
		} else {
			for _, s := range succ {
				if len(blocks[s].phis) != 0 {
					panic("ssarepair: critical edge feeding a phi")
				}
			}
		}

		bb := fn.CFG.Block(bIdx)

		if bPhis := blocks[bIdx].phis; len(bPhis) > 0 {
			phiDst := bb.PhiDsts()
			if phiDst == nil {
				phiDst = bb.InsertPhiDsts()
			}
			for _, ph := range bPhis {
				phiDst.PhiIdxs = append(phiDst.PhiIdxs, ph.idx)
				phiDst.Dsts = append(phiDst.Dsts, ir.NewSSADst(ph.dst))
			}
		}

		if !ssaMap.IsEmpty() {
			for _, instr := range bb.Instrs {
				instr.ForEachSSAUseMut(func(ssa *ir.SSAValue) {
					*ssa = ssaMap.Find(*ssa)
				})
			}
		}

		if hasSIdx {
			if sPhis := blocks[sIdx].phis; len(sPhis) > 0 {
				phiSrc := bb.PhiSrcs()
				if phiSrc == nil {
					phiSrc = bb.InsertPhiSrcs()
				}
				for _, ph := range sPhis {
					ssa := ssaMap.Find(ph.srcs[bIdx])
					phiSrc.PhiIdxs = append(phiSrc.PhiIdxs, ph.idx)
					phiSrc.Srcs = append(phiSrc.Srcs, ir.NewSSASrc(ssa))
				}
			}
		}
	}
}
