package spill

import (
	"github.com/nouveau-go/nakcore/pkg/consttracker"
	"github.com/nouveau-go/nakcore/pkg/ir"
)

// Cache amortises spilling the same SSA value more than once — a value
// already spilled, or one consttracker already knows is a freely
// re-materialisable constant, is never spilled twice. Fills are not
// deduplicated: every Fill emits a new instruction. Grounded on spill_values.rs's SpillCache<S: Spill>.
type Cache struct {
	strategy Spill
	consts   *consttracker.Tracker
	valSpill map[ir.SSAValue]ir.SSAValue

	numSpills uint32
	numFills  uint32
}

// NewCache builds an empty Cache for strategy, consulting consts to skip
// spilling values that are cheaper to simply re-emit at their fill site.
func NewCache(strategy Spill, consts *consttracker.Tracker) *Cache {
	return &Cache{strategy: strategy, consts: consts, valSpill: make(map[ir.SSAValue]ir.SSAValue)}
}

// Spill emits a spill of ssa if one isn't already on file, returning the
// emitted instruction (nil if none was needed because ssa is a known
// constant or was already spilled earlier) and its durable slot value.
func (c *Cache) Spill(alloc *ir.SSAValueAllocator, ssa ir.SSAValue) (instr *ir.Instruction, slot ir.SSAValue) {
	if c.consts.Contains(ssa) {
		return nil, ssa
	}
	if s, ok := c.valSpill[ssa]; ok {
		return nil, s
	}
	slot = alloc.Alloc(c.strategy.SlotFile())
	c.valSpill[ssa] = slot
	c.numSpills++
	return c.strategy.Spill(slot, ssa), slot
}

// RegisterPreSpilled records ssa as already living in slot without emitting
// a spill instruction — the phi-destination case, where the phi itself
// writes directly into the slot file and so needs no separate spill.
func (c *Cache) RegisterPreSpilled(ssa, slot ir.SSAValue) {
	c.valSpill[ssa] = slot
}

// Fill re-materialises ssa — by re-emitting its constant definition if
// consttracker knows one (cheaper than a real round trip through a spill
// slot), or by filling it back from wherever Spill last put it. The
// returned instruction defines ssa's own identity again rather than a fresh
// one: a value can genuinely gain more than one reaching definition this way
// once control flow merges two fill sites, which is exactly the multi-def
// SSA violation pkg/ssarepair exists to repair afterward, so there is
// nothing here for spill itself to reconcile.
func (c *Cache) Fill(ssa ir.SSAValue) *ir.Instruction {
	c.numFills++
	if src, ok := c.consts.Get(ssa); ok {
		return &ir.Instruction{Op: ir.OpCopy, Srcs: []ir.Src{src}, Dsts: []ir.Dst{ir.NewSSADst(ssa)}}
	}
	slot, ok := c.valSpill[ssa]
	if !ok {
		panic("spill: fill requested for a value that was never spilled")
	}
	return c.strategy.Fill(ssa, slot)
}

// FillFresh is Fill's counterpart for a use site that cannot accept ssa's
// own file back (the UPred-in-a-non-uniform-block case, which needs an
// ordinary per-lane Pred rather than the uniform predicate it's replacing):
// it allocates a brand new SSA identity in the per-lane counterpart of the
// strategy's SpillFile and fills into that instead of ssa itself.
func (c *Cache) FillFresh(alloc *ir.SSAValueAllocator, ssa ir.SSAValue) (ir.SSAValue, *ir.Instruction) {
	c.numFills++
	if src, ok := c.consts.Get(ssa); ok {
		dst := alloc.Alloc(c.strategy.SpillFile().ToWarp())
		return dst, &ir.Instruction{Op: ir.OpCopy, Srcs: []ir.Src{src}, Dsts: []ir.Dst{ir.NewSSADst(dst)}}
	}
	slot, ok := c.valSpill[ssa]
	if !ok {
		panic("spill: fill requested for a value that was never spilled")
	}
	dst := alloc.Alloc(c.strategy.SpillFile().ToWarp())
	return dst, c.strategy.Fill(dst, slot)
}

// SlotFile returns the register file spilled values of this strategy are
// held in between a Spill and its matching Fill.
func (c *Cache) SlotFile() ir.RegFile { return c.strategy.SlotFile() }

// IsToMemory reports whether this cache's strategy spills all the way to
// local memory (as opposed to a cheaper register file), the distinction
// ShaderInfo's NumSpillsToReg/NumSpillsToMem counters track.
func (c *Cache) IsToMemory() bool { return c.strategy.SlotFile() == ir.Mem }

// Stats returns the running spill/fill counts since the cache was created.
func (c *Cache) Stats() (numSpills, numFills uint32) { return c.numSpills, c.numFills }
