package spill

import (
	"fmt"
	"os"
	"sort"

	"github.com/nouveau-go/nakcore/pkg/consttracker"
	"github.com/nouveau-go/nakcore/pkg/dce"
	"github.com/nouveau-go/nakcore/pkg/debugcfg"
	"github.com/nouveau-go/nakcore/pkg/ir"
	"github.com/nouveau-go/nakcore/pkg/liveness"
	"github.com/nouveau-go/nakcore/pkg/ssarepair"
)

// blockEnd is the W/S/P state live at the bottom of one block, the shape
// every successor's entry initialisation and the inter-block fix-up pass
// read back.
type blockEnd struct {
	w *liveness.LiveSet
	s map[ir.SSAValue]struct{}
	p map[ir.SSAValue]struct{}
}

// Values runs C7 for file: it keeps the live count of file at or below
// limit everywhere in fn by inserting spills and fills, then repairs the
// SSA form the rewrite disturbed and sweeps the dead copies DCE can now
// see. info's spill/fill counters are updated in place. Grounded on
// spill_values.rs's Function::spill_values.
func Values(fn *ir.Function, file ir.RegFile, limit uint32, info *ir.ShaderInfo, dbg debugcfg.Flags) {
	strategy := NewSpillFor(file)
	consts := consttracker.New()
	fn.ForEachInstr(func(_, _ int, instr *ir.Instruction) {
		if instr.Op == ir.OpCopy {
			consts.AddCopy(instr)
		}
	})
	cache := NewCache(strategy, consts)

	n := fn.CFG.NumBlocks()
	lv := liveness.ForFunction(fn, liveness.NewFileSet(file))
	loopUse := computeLoopUseSets(fn, file)

	ends := make([]*blockEnd, n)
	spilledPhiIdxs := make([]map[uint32]struct{}, n)
	for b := 0; b < n; b++ {
		spilledPhiIdxs[b] = make(map[uint32]struct{})
	}

	for b := 0; b < n; b++ {
		ends[b] = runBlock(fn, b, file, limit, lv.BlockLive(b), ends, loopUse[b], cache, spilledPhiIdxs[b], dbg)
	}

	fixUpEdges(fn, file, ends, spilledPhiIdxs, cache, dbg)

	ssarepair.Repair(fn)
	dce.Run(fn)

	numSpills, numFills := cache.Stats()
	if cache.IsToMemory() {
		info.NumSpillsToMem += numSpills
		info.NumFillsFromMem += numFills
	} else {
		info.NumSpillsToReg += numSpills
		info.NumFillsFromReg += numFills
	}

	if dbg.Print {
		fmt.Fprintf(os.Stderr, "-- after spilling %s (limit %d) --\n%s", file, limit, ir.DumpFunction(fn))
	}
}

// enclosingLoopHeaders returns the loop headers that contain block b,
// innermost first, walking the dominator-parent chain.
func enclosingLoopHeaders(c *ir.CFG, b int) []int {
	var headers []int
	cur := b
	for {
		h, ok := c.LoopHeaderIndex(cur)
		if !ok {
			return headers
		}
		headers = append(headers, h)
		parent := c.DomParentIndex(h)
		if parent == -1 {
			return headers
		}
		cur = parent
	}
}

// computeLoopUseSets returns, for every loop header, the set of file-typed
// SSA values used anywhere in its body — including nested loops, whose uses
// propagate outward to every enclosing header.
func computeLoopUseSets(fn *ir.Function, file ir.RegFile) []map[ir.SSAValue]struct{} {
	n := fn.CFG.NumBlocks()
	out := make([]map[ir.SSAValue]struct{}, n)
	for b := 0; b < n; b++ {
		headers := enclosingLoopHeaders(fn.CFG, b)
		if len(headers) == 0 {
			continue
		}
		var uses []ir.SSAValue
		for _, instr := range fn.CFG.Block(b).Instrs {
			instr.ForEachSSAUse(func(ssa ir.SSAValue) {
				if ssa.File() == file {
					uses = append(uses, ssa)
				}
			})
		}
		if len(uses) == 0 {
			continue
		}
		for _, h := range headers {
			if out[h] == nil {
				out[h] = make(map[ir.SSAValue]struct{})
			}
			for _, v := range uses {
				out[h][v] = struct{}{}
			}
		}
	}
	return out
}

func intersectKeep(m map[ir.SSAValue]struct{}, keep map[ir.SSAValue]struct{}) map[ir.SSAValue]struct{} {
	out := make(map[ir.SSAValue]struct{})
	for k := range m {
		if _, ok := keep[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// phiDstsOfFile returns b's phi destinations restricted to file.
func phiDstsOfFile(b *ir.BasicBlock, file ir.RegFile) []ir.SSAValue {
	phi := b.PhiDsts()
	if phi == nil {
		return nil
	}
	var out []ir.SSAValue
	for _, d := range phi.Dsts {
		if ssa, ok := d.AsSSA(); ok && ssa.File() == file {
			out = append(out, ssa)
		}
	}
	return out
}

// initBlockState computes the W/S/P sets live at the top of block bIdx, per
// the five documented entry cases.
func initBlockState(fn *ir.Function, bIdx int, file ir.RegFile, limit uint32, bl *liveness.NextUseBlockLiveness, ends []*blockEnd, loopUse map[ir.SSAValue]struct{}) (*liveness.LiveSet, map[ir.SSAValue]struct{}, map[ir.SSAValue]struct{}) {
	block := fn.CFG.Block(bIdx)
	preds := fn.CFG.PredIndices(bIdx)

	liveIn := bl.IterLiveIn()
	liveInSet := make(map[ir.SSAValue]struct{}, len(liveIn))
	for _, v := range liveIn {
		liveInSet[v] = struct{}{}
	}
	phiDsts := phiDstsOfFile(block, file)
	for _, v := range phiDsts {
		liveInSet[v] = struct{}{}
	}

	switch {
	case len(preds) == 0:
		return liveness.NewLiveSet(), map[ir.SSAValue]struct{}{}, map[ir.SSAValue]struct{}{}

	case len(preds) == 1:
		pe := ends[preds[0]]
		w := liveness.NewLiveSet()
		for _, v := range pe.w.Iter() {
			if _, ok := liveInSet[v]; ok {
				w.Insert(v)
			}
		}
		return w, intersectKeep(pe.s, liveInSet), intersectKeep(pe.p, liveInSet)

	case file.IsUniform() && !block.Uniform:
		unionW, unionS, unionP := map[ir.SSAValue]struct{}{}, map[ir.SSAValue]struct{}{}, map[ir.SSAValue]struct{}{}
		for _, pi := range preds {
			pe := ends[pi]
			for _, v := range pe.w.Iter() {
				unionW[v] = struct{}{}
			}
			for v := range pe.s {
				unionS[v] = struct{}{}
			}
			for v := range pe.p {
				unionP[v] = struct{}{}
			}
		}
		w := liveness.NewLiveSet()
		for v := range intersectKeep(unionW, liveInSet) {
			w.Insert(v)
		}
		return w, intersectKeep(unionS, liveInSet), intersectKeep(unionP, liveInSet)

	case fn.CFG.IsLoopHeader(bIdx):
		w := liveness.NewLiveSet()
		for _, v := range phiDsts {
			w.Insert(v)
		}
		remaining := int(limit) - len(phiDsts)
		if remaining > 0 {
			inLoop, outLoop := map[ir.SSAValue]int{}, map[ir.SSAValue]int{}
			for _, v := range liveIn {
				if w.Contains(v) {
					continue
				}
				nu, ok := bl.FirstUse(v)
				if !ok {
					continue
				}
				if _, ok := loopUse[v]; ok {
					inLoop[v] = nu
				} else {
					outLoop[v] = nu
				}
			}
			for _, v := range ChooseKeepCandidates(inLoop, remaining) {
				w.Insert(v)
			}
			remaining = int(limit) - int(w.Count(file))
			if remaining > 0 {
				for _, v := range ChooseKeepCandidates(outLoop, remaining) {
					w.Insert(v)
				}
			}
		}
		return w, map[ir.SSAValue]struct{}{}, map[ir.SSAValue]struct{}{}

	default: // ordinary join
		count := make(map[ir.SSAValue]int)
		for _, pi := range preds {
			for _, v := range ends[pi].w.Iter() {
				count[v]++
			}
		}
		w := liveness.NewLiveSet()
		remain := make(map[ir.SSAValue]int)
		for _, v := range liveIn {
			if count[v] == len(preds) {
				w.Insert(v)
				continue
			}
			if nu, ok := bl.FirstUse(v); ok {
				remain[v] = nu
			}
		}
		for _, v := range phiDsts {
			if !w.Contains(v) {
				if nu, ok := bl.FirstUse(v); ok {
					remain[v] = nu
				}
			}
		}
		space := int(limit) - int(w.Count(file))
		if space > 0 {
			for _, v := range ChooseKeepCandidates(remain, space) {
				w.Insert(v)
			}
		}
		s, p := map[ir.SSAValue]struct{}{}, map[ir.SSAValue]struct{}{}
		for _, pi := range preds {
			pe := ends[pi]
			for v := range pe.s {
				if _, ok := liveInSet[v]; ok {
					s[v] = struct{}{}
				}
			}
			for v := range pe.p {
				if _, ok := liveInSet[v]; ok {
					p[v] = struct{}{}
				}
			}
		}
		return w, s, p
	}
}

// advanceW applies the standard top-down liveness step, restricted to file:
// drop sources with no further use after ip, add every destination.
func advanceW(w *liveness.LiveSet, file ir.RegFile, ip int, instr *ir.Instruction, bl *liveness.NextUseBlockLiveness) {
	instr.ForEachSSAUse(func(ssa ir.SSAValue) {
		if ssa.File() != file {
			return
		}
		if !bl.IsLiveAfterIP(ssa, ip) {
			w.Remove(ssa)
		}
	})
	instr.ForEachSSADef(func(ssa ir.SSAValue) {
		if ssa.File() == file {
			w.Insert(ssa)
		}
	})
}

func touchesFile(instr *ir.Instruction, file ir.RegFile) bool {
	found := false
	instr.ForEachSSAUse(func(ssa ir.SSAValue) {
		if ssa.File() == file {
			found = true
		}
	})
	instr.ForEachSSADef(func(ssa ir.SSAValue) {
		if ssa.File() == file {
			found = true
		}
	})
	return found
}

func maybeAnnotate(pre []*ir.Instruction, dbg debugcfg.Flags) []*ir.Instruction {
	if !dbg.Annotate || len(pre) == 0 {
		return pre
	}
	return append([]*ir.Instruction{{Op: ir.OpAnnotate}}, pre...)
}

// handlePhiDsts spills any phi destination of file that didn't make it into
// the resident set at block entry: the phi still runs, but is rewritten to
// write directly into its spill slot instead of a live register.
func handlePhiDsts(instr *ir.Instruction, file ir.RegFile, w *liveness.LiveSet, s map[ir.SSAValue]struct{}, cache *Cache, alloc *ir.SSAValueAllocator, spilledIdxs map[uint32]struct{}) {
	for i := range instr.Dsts {
		dst, ok := instr.Dsts[i].AsSSA()
		if !ok || dst.File() != file {
			continue
		}
		if w.Contains(dst) {
			continue
		}
		slot := alloc.Alloc(cache.SlotFile())
		cache.RegisterPreSpilled(dst, slot)
		instr.Dsts[i] = ir.NewSSADst(slot)
		s[dst] = struct{}{}
		if i < len(instr.PhiIdxs) {
			spilledIdxs[instr.PhiIdxs[i]] = struct{}{}
		}
	}
}

func handleParCopy(instr *ir.Instruction, file ir.RegFile, limit uint32, ip int, bl *liveness.NextUseBlockLiveness, w *liveness.LiveSet, s, p map[ir.SSAValue]struct{}, cache *Cache, alloc *ir.SSAValueAllocator, dbg debugcfg.Flags) []*ir.Instruction {
	type pair struct {
		idx      int
		dst, src ir.SSAValue
	}
	var deferred []pair
	var pre []*ir.Instruction

	for i := range instr.Dsts {
		dst, ok := instr.Dsts[i].AsSSA()
		if !ok || dst.File() != file {
			continue
		}
		src, ok := instr.Srcs[i].AsSSA()
		if !ok {
			continue
		}
		if w.Contains(src) {
			deferred = append(deferred, pair{i, dst, src})
			continue
		}
		// source already lives only in spill space (by the W/S invariant a
		// live value not resident must already be spilled): redirect both
		// operands there directly, no fill-then-spill round trip needed.
		spillInstr, srcSlot := cache.Spill(alloc, src)
		if spillInstr != nil {
			pre = append(pre, spillInstr)
		}
		dstSlot := alloc.Alloc(cache.SlotFile())
		cache.RegisterPreSpilled(dst, dstSlot)
		instr.Srcs[i] = ir.NewSSASrc(srcSlot)
		instr.Dsts[i] = ir.NewSSADst(dstSlot)
		s[dst] = struct{}{}
	}

	for _, pr := range deferred {
		if !bl.IsLiveAfterIP(pr.src, ip) {
			w.Remove(pr.src)
		}
	}

	headroom := int(limit) - int(w.Count(file))
	if len(deferred) > headroom {
		excess := len(deferred) - headroom
		cands := make(map[ir.SSAValue]int)
		for _, pr := range deferred {
			if _, pinned := p[pr.dst]; pinned {
				continue
			}
			if nu, ok := bl.NextUseAfterOrAtIP(pr.dst, ip); ok {
				cands[pr.dst] = nu
			}
		}
		victims := ChooseSpillVictims(cands, nil, excess)
		victimSet := make(map[ir.SSAValue]struct{}, len(victims))
		for _, v := range victims {
			victimSet[v] = struct{}{}
		}
		for _, pr := range deferred {
			if _, isVictim := victimSet[pr.dst]; !isVictim {
				w.Insert(pr.dst)
				continue
			}
			spillInstr, slot := cache.Spill(alloc, pr.src)
			if spillInstr != nil {
				pre = append(pre, spillInstr)
			}
			cache.RegisterPreSpilled(pr.dst, slot)
			instr.Dsts[pr.idx] = ir.NewSSADst(slot)
			s[pr.dst] = struct{}{}
		}
	} else {
		for _, pr := range deferred {
			w.Insert(pr.dst)
		}
	}
	return maybeAnnotate(pre, dbg)
}

// handleUniformInNonUniform covers every non-phi, non-parallel-copy
// instruction when file is UGPR and the block it's in is not: a use not
// resident is spilled and the operand rewritten to the spill slot directly,
// since the hardware accepts a broadcast warp register in place of a
// uniform one.
func handleUniformInNonUniform(instr *ir.Instruction, file ir.RegFile, ip int, bl *liveness.NextUseBlockLiveness, w *liveness.LiveSet, s map[ir.SSAValue]struct{}, cache *Cache, alloc *ir.SSAValueAllocator, dbg debugcfg.Flags) []*ir.Instruction {
	var pre []*ir.Instruction
	instr.ForEachSSAUseMut(func(ssa *ir.SSAValue) {
		if ssa.File() != file || w.Contains(*ssa) {
			return
		}
		spillInstr, slot := cache.Spill(alloc, *ssa)
		if spillInstr != nil {
			pre = append(pre, spillInstr)
		}
		s[*ssa] = struct{}{}
		*ssa = slot
	})
	advanceW(w, file, ip, instr, bl)
	return maybeAnnotate(pre, dbg)
}

// handleUPredInNonUniform covers UPred uses in a non-uniform block: a use
// not resident is filled into a fresh, purely local Pred value (a uniform
// predicate can't be read directly in divergent code) and the operand
// rewritten to that fresh value.
func handleUPredInNonUniform(instr *ir.Instruction, file ir.RegFile, ip int, bl *liveness.NextUseBlockLiveness, w *liveness.LiveSet, cache *Cache, alloc *ir.SSAValueAllocator, dbg debugcfg.Flags) []*ir.Instruction {
	var pre []*ir.Instruction
	instr.ForEachSSAUseMut(func(ssa *ir.SSAValue) {
		if ssa.File() != file || w.Contains(*ssa) {
			return
		}
		fresh, fillInstr := cache.FillFresh(alloc, *ssa)
		pre = append(pre, fillInstr)
		*ssa = fresh
	})
	advanceW(w, file, ip, instr, bl)
	return maybeAnnotate(pre, dbg)
}

// handleGeneral is the ordinary instruction path: fill whatever file-typed
// uses aren't resident, spilling headroom out of W first if the
// instruction's own pressure would overflow limit.
func handleGeneral(instr *ir.Instruction, file ir.RegFile, limit uint32, ip int, bl *liveness.NextUseBlockLiveness, w *liveness.LiveSet, s, p map[ir.SSAValue]struct{}, cache *Cache, alloc *ir.SSAValueAllocator, dbg debugcfg.Flags) []*ir.Instruction {
	var needFill []ir.SSAValue
	seen := map[ir.SSAValue]struct{}{}
	instr.ForEachSSAUse(func(ssa ir.SSAValue) {
		if ssa.File() != file || w.Contains(ssa) {
			return
		}
		if _, dup := seen[ssa]; dup {
			return
		}
		seen[ssa] = struct{}{}
		needFill = append(needFill, ssa)
	})

	pressure := int(bl.GetInstrPressure(ip, instr)[file])
	var pre []*ir.Instruction
	if int(w.Count(file))+pressure > int(limit) {
		excess := int(w.Count(file)) + pressure - int(limit)
		cands := make(map[ir.SSAValue]int)
		for _, v := range w.Iter() {
			if v.File() != file {
				continue
			}
			if _, pinned := p[v]; pinned {
				continue
			}
			if nu, ok := bl.NextUseAfterOrAtIP(v, ip); ok {
				cands[v] = nu
			}
		}
		for _, v := range ChooseSpillVictims(cands, nil, excess) {
			if _, already := s[v]; already {
				w.Remove(v)
				continue
			}
			spillInstr, _ := cache.Spill(alloc, v)
			if spillInstr != nil {
				pre = append(pre, spillInstr)
			}
			s[v] = struct{}{}
			w.Remove(v)
		}
	}

	for _, v := range needFill {
		pre = append(pre, cache.Fill(v))
		w.Insert(v)
	}

	advanceW(w, file, ip, instr, bl)
	return maybeAnnotate(pre, dbg)
}

// runBlock walks every instruction of block bIdx, dispatching by kind, and
// returns the W/S/P state at the block's end.
func runBlock(fn *ir.Function, bIdx int, file ir.RegFile, limit uint32, bl *liveness.NextUseBlockLiveness, ends []*blockEnd, loopUse map[ir.SSAValue]struct{}, cache *Cache, spilledIdxs map[uint32]struct{}, dbg debugcfg.Flags) *blockEnd {
	block := fn.CFG.Block(bIdx)
	alloc := &fn.Values

	w, s, p := initBlockState(fn, bIdx, file, limit, bl, ends, loopUse)

	orig := append([]*ir.Instruction(nil), block.Instrs...)
	out := make([]*ir.Instruction, 0, len(orig))

	for ip, instr := range orig {
		var pre []*ir.Instruction
		switch {
		case instr.Op == ir.OpPhiDsts:
			handlePhiDsts(instr, file, w, s, cache, alloc, spilledIdxs)
		case instr.Op == ir.OpPhiSrcs:
			// deferred to the inter-block fix-up pass
		case instr.Op == ir.OpParCopy:
			pre = handleParCopy(instr, file, limit, ip, bl, w, s, p, cache, alloc, dbg)
		case file == ir.UGPR && !block.Uniform && touchesFile(instr, file):
			pre = handleUniformInNonUniform(instr, file, ip, bl, w, s, cache, alloc, dbg)
		case file == ir.UPred && !block.Uniform && touchesFile(instr, file):
			pre = handleUPredInNonUniform(instr, file, ip, bl, w, cache, alloc, dbg)
		default:
			pre = handleGeneral(instr, file, limit, ip, bl, w, s, p, cache, alloc, dbg)
			if instr.Op == ir.OpPin {
				instr.ForEachSSADef(func(ssa ir.SSAValue) {
					if ssa.File() == file {
						p[ssa] = struct{}{}
					}
				})
			}
		}
		out = append(out, pre...)
		out = append(out, instr)
	}
	block.Instrs = out

	return &blockEnd{w: w, s: s, p: p}
}

// insertFixUp splices pre into block b at its phi-sources instruction if it
// has one, else its terminator, else the very end.
func insertFixUp(b *ir.BasicBlock, pre []*ir.Instruction) {
	if len(pre) == 0 {
		return
	}
	ip, ok := b.PhiSrcsIP()
	if !ok {
		ip, ok = b.BranchIP()
	}
	if !ok {
		b.Instrs = append(b.Instrs, pre...)
		return
	}
	merged := make([]*ir.Instruction, 0, len(b.Instrs)+len(pre))
	merged = append(merged, b.Instrs[:ip]...)
	merged = append(merged, pre...)
	merged = append(merged, b.Instrs[ip:]...)
	b.Instrs = merged
}

// fixUpPhiSources rewires p's phi-sources instruction for every phi whose
// destination at s was spilled: the value p contributes to that phi must
// arrive already in spill space, not as a live register.
func fixUpPhiSources(fn *ir.Function, file ir.RegFile, pIdx, sIdx int, spilledIdxs map[uint32]struct{}, cache *Cache, alloc *ir.SSAValueAllocator) []*ir.Instruction {
	if len(spilledIdxs) == 0 {
		return nil
	}
	phiDst := fn.CFG.Block(sIdx).PhiDsts()
	phiSrc := fn.CFG.Block(pIdx).PhiSrcs()
	if phiDst == nil || phiSrc == nil {
		return nil
	}
	var pre []*ir.Instruction
	for i, idx := range phiDst.PhiIdxs {
		if _, spilled := spilledIdxs[idx]; !spilled {
			continue
		}
		if dst, ok := phiDst.Dsts[i].AsSSA(); !ok || dst.File() != file {
			continue
		}
		for j, srcIdx := range phiSrc.PhiIdxs {
			if srcIdx != idx {
				continue
			}
			srcVal, ok := phiSrc.Srcs[j].AsSSA()
			if !ok {
				break
			}
			instr, slot := cache.Spill(alloc, srcVal)
			if instr != nil {
				pre = append(pre, instr)
			}
			phiSrc.Srcs[j] = ir.NewSSASrc(slot)
			break
		}
	}
	return pre
}

// fixUpEdges reconciles each block's end state with its sole successor's
// start state: the input forbids critical edges, so every non-branching
// successor edge is the only place spill/fill bookkeeping ever needs to
// cross a block boundary.
func fixUpEdges(fn *ir.Function, file ir.RegFile, ends []*blockEnd, spilledIdxs []map[uint32]struct{}, cache *Cache, dbg debugcfg.Flags) {
	alloc := &fn.Values
	n := fn.CFG.NumBlocks()
	for pIdx := 0; pIdx < n; pIdx++ {
		succs := fn.CFG.SuccIndices(pIdx)
		if len(succs) != 1 {
			continue
		}
		sIdx := succs[0]
		pe, se := ends[pIdx], ends[sIdx]

		var toFill, toSpill []ir.SSAValue
		for _, v := range se.w.Iter() {
			if v.File() != file {
				continue
			}
			if !pe.w.Contains(v) {
				toFill = append(toFill, v)
			}
		}
		for v := range se.s {
			if _, already := pe.s[v]; already {
				continue
			}
			if pe.w.Contains(v) {
				toSpill = append(toSpill, v)
			}
		}
		sort.Slice(toSpill, func(i, j int) bool { return toSpill[i].Idx() < toSpill[j].Idx() })
		sort.Slice(toFill, func(i, j int) bool { return toFill[i].Idx() < toFill[j].Idx() })

		var pre []*ir.Instruction
		pre = append(pre, fixUpPhiSources(fn, file, pIdx, sIdx, spilledIdxs[sIdx], cache, alloc)...)
		for _, v := range toSpill {
			instr, _ := cache.Spill(alloc, v)
			if instr != nil {
				pre = append(pre, instr)
			}
		}
		for _, v := range toFill {
			pre = append(pre, cache.Fill(v))
		}

		insertFixUp(fn.CFG.Block(pIdx), maybeAnnotate(pre, dbg))
	}
}
